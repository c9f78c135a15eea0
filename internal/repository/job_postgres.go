package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `id, status, stage, report_id, question_id, answer, answer_status,
	prompt_path, error, elapsed_seconds, created_at, updated_at`

var _ JobStore = &JobPostgres{}

// JobPostgres implements JobStore on the jobs table.
type JobPostgres struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewJobPostgres(db *pgxpool.Pool) *JobPostgres {
	return &JobPostgres{
		db:  db,
		now: time.Now,
	}
}

func (r *JobPostgres) Create(ctx context.Context, reportID string) (*entity.Job, error) {
	now := r.now().UTC()
	job := &entity.Job{
		ID:        newJobID(),
		Status:    entity.JobStatusProcessing,
		Stage:     entity.JobStageQueued,
		ReportID:  reportID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO jobs (id, status, stage, report_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, string(job.Status), string(job.Stage), job.ReportID, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (r *JobPostgres) Update(ctx context.Context, id string, upd entity.JobUpdate) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		job, err := scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		upd.Apply(job, r.now().UTC())

		var questionID *int32
		if job.QuestionID != nil {
			v := int32(*job.QuestionID)
			questionID = &v
		}

		_, err = tx.Exec(ctx,
			`UPDATE jobs SET status = $2, stage = $3, report_id = $4, question_id = $5, answer = $6,
				answer_status = $7, prompt_path = $8, error = $9, elapsed_seconds = $10, updated_at = $11
			 WHERE id = $1`,
			job.ID, string(job.Status), string(job.Stage), job.ReportID, questionID, job.Answer,
			string(job.AnswerStatus), job.PromptPath, job.Error, job.ElapsedSeconds, job.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		return nil
	})
}

func (r *JobPostgres) Get(ctx context.Context, id string) (*entity.Job, error) {
	return scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
}

func scanJob(row pgx.Row) (*entity.Job, error) {
	var (
		rec        jobRow
		questionID *int32
	)
	err := row.Scan(
		&rec.ID, &rec.Status, &rec.Stage, &rec.ReportID, &questionID, &rec.Answer, &rec.AnswerStatus,
		&rec.PromptPath, &rec.Error, &rec.ElapsedSeconds, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	rec.QuestionID = questionID
	return toEntityJob(&rec), nil
}
