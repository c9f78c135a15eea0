package report

import (
	"context"

	"github.com/futig/report-grounder/internal/entity"
)

// TextExtractor turns an uploaded PDF into raw_txt/<name>.txt.
type TextExtractor interface {
	ExtractToFile(ctx context.Context, pdfPath, outDir string) (string, error)
}

// AnswerDeliverer pushes finished jobs to the outer API.
type AnswerDeliverer interface {
	SendAnswer(ctx context.Context, requestID string, data *entity.CallbackAnswerData)
	SendError(ctx context.Context, requestID string, message string, details map[string]any)
}

// JobNotifier announces finished jobs.
type JobNotifier interface {
	JobFinished(ctx context.Context, job *entity.Job)
}
