package indexer

import (
	"context"
	"fmt"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/embedding"
	"github.com/futig/report-grounder/internal/pipeline/vectorindex"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Inject stores an ad-hoc question under CustomQuestionID in the question
// index. An existing custom row is overwritten in place; all other rows keep
// their vectors and positions. Callers must hold the report lock.
func (b *Builder) Inject(ctx context.Context, layout *workspace.Layout, soru, yordam string) (entity.Question, error) {
	q := entity.NewQuestion(entity.CustomQuestionID, soru, yordam)
	if q.Soru == "" {
		return entity.Question{}, fmt.Errorf("%w: custom_question", entity.ErrMissingField)
	}

	lookup := vectorindex.LoadQuestions(layout)
	switch lookup.Status {
	case entity.LookupNotFound:
		return entity.Question{}, fmt.Errorf("%w: question index missing for %s", entity.ErrReportNotIndexed, layout.ReportID())
	case entity.LookupBackendError:
		return entity.Question{}, lookup.Err
	}
	idx := lookup.Value

	vec, err := embedding.EmbedOne(ctx, b.embedder, q.Text)
	if err != nil {
		return entity.Question{}, fmt.Errorf("embed custom question: %w", asBackendError(err))
	}

	if row, ok := idx.Find(entity.CustomQuestionID); ok {
		if err := idx.Vectors.Replace(row, vec); err != nil {
			return entity.Question{}, err
		}
		idx.Questions[row] = q
		ctxzap.Info(ctx, "custom question replaced", zap.Int("row", row))
	} else {
		if err := idx.Vectors.Add(vec); err != nil {
			return entity.Question{}, err
		}
		idx.Questions = append(idx.Questions, q)
		ctxzap.Info(ctx, "custom question appended", zap.Int("row", len(idx.Questions)-1))
	}

	if err := vectorindex.SaveQuestions(layout, idx); err != nil {
		return entity.Question{}, err
	}
	return q, nil
}
