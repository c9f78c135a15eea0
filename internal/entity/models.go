package entity

import (
	"time"
)

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// JobStage names the pipeline step a job is currently in.
type JobStage string

const (
	JobStageQueued    JobStage = "queued"
	JobStageExtract   JobStage = "extract"
	JobStageClean     JobStage = "clean"
	JobStageChunk     JobStage = "chunk"
	JobStageIndex     JobStage = "index"
	JobStageInject    JobStage = "inject"
	JobStageRetrieve  JobStage = "retrieve"
	JobStageExpand    JobStage = "expand"
	JobStagePrompt    JobStage = "prompt"
	JobStageAnswer    JobStage = "answer"
	JobStageDeliver   JobStage = "deliver"
	JobStageCompleted JobStage = "completed"
)

// Job tracks one report-processing run.
type Job struct {
	ID             string       `json:"job_id"`
	Status         JobStatus    `json:"status"`
	Stage          JobStage     `json:"stage,omitempty"`
	ReportID       string       `json:"report_id,omitempty"`
	QuestionID     *int         `json:"question_id,omitempty"`
	Answer         string       `json:"answer,omitempty"`
	AnswerStatus   AnswerStatus `json:"answer_status,omitempty"`
	PromptPath     string       `json:"prompt_path,omitempty"`
	Error          string       `json:"error,omitempty"`
	ElapsedSeconds float64      `json:"elapsed_seconds,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// JobUpdate carries the fields to change on a job. Nil fields are left as is.
type JobUpdate struct {
	Status         *JobStatus
	Stage          *JobStage
	ReportID       *string
	QuestionID     *int
	Answer         *string
	AnswerStatus   *AnswerStatus
	PromptPath     *string
	Error          *string
	ElapsedSeconds *float64
}

// Apply copies the set fields of u onto job and bumps UpdatedAt.
func (u JobUpdate) Apply(job *Job, now time.Time) {
	if u.Status != nil {
		job.Status = *u.Status
	}
	if u.Stage != nil {
		job.Stage = *u.Stage
	}
	if u.ReportID != nil {
		job.ReportID = *u.ReportID
	}
	if u.QuestionID != nil {
		id := *u.QuestionID
		job.QuestionID = &id
	}
	if u.Answer != nil {
		job.Answer = *u.Answer
	}
	if u.AnswerStatus != nil {
		job.AnswerStatus = *u.AnswerStatus
	}
	if u.PromptPath != nil {
		job.PromptPath = *u.PromptPath
	}
	if u.Error != nil {
		job.Error = *u.Error
	}
	if u.ElapsedSeconds != nil {
		job.ElapsedSeconds = *u.ElapsedSeconds
	}
	job.UpdatedAt = now
}

// Ptr returns a pointer to v. Handy for filling JobUpdate.
func Ptr[T any](v T) *T {
	return &v
}
