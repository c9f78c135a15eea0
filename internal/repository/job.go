package repository

import (
	"context"
	"strings"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/google/uuid"
)

// JobStore persists job state. Get and Update return entity.ErrJobNotFound
// for unknown ids.
type JobStore interface {
	Create(ctx context.Context, reportID string) (*entity.Job, error)
	Update(ctx context.Context, id string, upd entity.JobUpdate) error
	Get(ctx context.Context, id string) (*entity.Job, error)
}

func newJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func cloneJob(job *entity.Job) *entity.Job {
	out := *job
	if job.QuestionID != nil {
		id := *job.QuestionID
		out.QuestionID = &id
	}
	return &out
}
