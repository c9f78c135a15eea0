// Package indexer builds the per-category chunk indexes and the question index
// of a report.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/chunker"
	"github.com/futig/report-grounder/internal/pipeline/embedding"
	"github.com/futig/report-grounder/internal/pipeline/vectorindex"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Builder struct {
	embedder embedding.Embedder
}

func NewBuilder(e embedding.Embedder) *Builder {
	return &Builder{embedder: e}
}

// BuildCategory embeds every persisted chunk of category c and writes its
// index. A category without chunks reports zero rows and loses any index left
// from an earlier build.
func (b *Builder) BuildCategory(ctx context.Context, layout *workspace.Layout, c entity.Category) (int, error) {
	chunks, err := chunker.Load(layout, c)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		ctxzap.Warn(ctx, "no chunks for category, skipping index", zap.String("category", c.String()))
		return 0, vectorindex.RemoveCategory(layout, c)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.ChunkText
	}

	flat, err := b.embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("index %s: %w", c, err)
	}

	if err := vectorindex.SaveCategory(layout, &vectorindex.CategoryIndex{
		Category: c,
		Vectors:  flat,
		Chunks:   chunks,
	}); err != nil {
		return 0, err
	}

	ctxzap.Info(ctx, "category index built",
		zap.String("category", c.String()),
		zap.Int("rows", len(chunks)),
		zap.Int("dim", flat.Dim()),
	)
	return len(chunks), nil
}

// BuildCategories builds every category concurrently. Each category owns its
// own files, so the builds never contend.
func (b *Builder) BuildCategories(ctx context.Context, layout *workspace.Layout) (map[entity.Category]int, error) {
	cats := entity.Categories()
	counts := make([]int, len(cats))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range cats {
		i, c := i, c
		g.Go(func() error {
			n, err := b.BuildCategory(gctx, layout, c)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[entity.Category]int, len(cats))
	for i, c := range cats {
		out[c] = counts[i]
	}
	return out, nil
}

// BuildQuestions embeds the combined text of every question and writes the
// question index.
func (b *Builder) BuildQuestions(ctx context.Context, layout *workspace.Layout, qs []entity.Question) error {
	if len(qs) == 0 {
		return entity.ErrNoQuestions
	}

	texts := make([]string, len(qs))
	for i, q := range qs {
		texts[i] = q.Text
	}

	flat, err := b.embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("index questions: %w", err)
	}

	if err := vectorindex.SaveQuestions(layout, &vectorindex.QuestionIndex{Vectors: flat, Questions: qs}); err != nil {
		return err
	}

	ctxzap.Info(ctx, "question index built", zap.Int("questions", len(qs)))
	return nil
}

func (b *Builder) embed(ctx context.Context, texts []string) (*vectorindex.Flat, error) {
	vecs, err := embedding.EmbedNormalized(ctx, b.embedder, texts)
	if err != nil {
		return nil, asBackendError(err)
	}

	flat, err := vectorindex.NewFlat(len(vecs[0]))
	if err != nil {
		return nil, err
	}
	if err := flat.Add(vecs...); err != nil {
		return nil, err
	}
	return flat, nil
}

func asBackendError(err error) error {
	if errors.Is(err, entity.ErrBackendUnavailable) ||
		errors.Is(err, entity.ErrDimensionMismatch) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", entity.ErrBackendUnavailable, err)
}
