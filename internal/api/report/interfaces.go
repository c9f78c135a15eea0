package report

import (
	"context"

	"github.com/futig/report-grounder/internal/entity"
)

type ReportUsecase interface {
	Submit(ctx context.Context, in entity.ProcessInput) (*entity.Job, error)
	GetJob(ctx context.Context, jobID string) (*entity.Job, error)
	Query(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResponse, error)
	ExportAnswer(ctx context.Context, reportID string, questionID int, format entity.ResultFormat) (*entity.AnswerFile, error)
}

type RequestValidator interface {
	ValidateProcess(req *entity.ProcessRequest) error
	ValidateQuery(req *entity.QueryRequest, defaultTopK int) error
}
