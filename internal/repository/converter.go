package repository

import (
	"time"

	"github.com/futig/report-grounder/internal/entity"
)

// jobRow mirrors the jobs table.
type jobRow struct {
	ID             string
	Status         string
	Stage          string
	ReportID       string
	QuestionID     *int32
	Answer         string
	AnswerStatus   string
	PromptPath     string
	Error          string
	ElapsedSeconds float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func toEntityJob(row *jobRow) *entity.Job {
	job := &entity.Job{
		ID:             row.ID,
		Status:         entity.JobStatus(row.Status),
		Stage:          entity.JobStage(row.Stage),
		ReportID:       row.ReportID,
		Answer:         row.Answer,
		AnswerStatus:   entity.AnswerStatus(row.AnswerStatus),
		PromptPath:     row.PromptPath,
		Error:          row.Error,
		ElapsedSeconds: row.ElapsedSeconds,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}

	if row.QuestionID != nil {
		id := int(*row.QuestionID)
		job.QuestionID = &id
	}

	return job
}
