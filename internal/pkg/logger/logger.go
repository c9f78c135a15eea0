// Package logger tags the request-scoped zap logger carried in a context.
package logger

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AddFields adds fields to the logger in context and returns new context
func AddFields(ctx context.Context, fields ...zap.Field) context.Context {
	return ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(fields...))
}

// WithAction names the flow that following log lines belong to.
func WithAction(ctx context.Context, action string) context.Context {
	return AddFields(ctx, zap.String("action", action))
}

// WithReport tags log lines with the report namespace being worked on.
func WithReport(ctx context.Context, reportID string) context.Context {
	return AddFields(ctx, zap.String("report_id", reportID))
}

// WithJob tags log lines of a background job.
func WithJob(ctx context.Context, jobID, reportID string) context.Context {
	return AddFields(ctx, zap.String("job_id", jobID), zap.String("report_id", reportID))
}
