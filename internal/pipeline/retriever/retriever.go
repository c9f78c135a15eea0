// Package retriever runs top-k searches against the category indexes of a
// report.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/embedding"
	"github.com/futig/report-grounder/internal/pipeline/vectorindex"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultTopK = 10

type Retriever struct {
	embedder embedding.Embedder
}

func New(e embedding.Embedder) *Retriever {
	return &Retriever{embedder: e}
}

// SearchCategories embeds query once and returns the top-k hits of every built
// category index. Categories without an index are absent from the result.
func (r *Retriever) SearchCategories(ctx context.Context, layout *workspace.Layout, query string, k int) (map[entity.Category][]entity.RetrievalHit, error) {
	indexes, err := loadIndexes(ctx, layout)
	if err != nil {
		return nil, err
	}
	if len(indexes) == 0 {
		return map[entity.Category][]entity.RetrievalHit{}, nil
	}

	vec, err := embedding.EmbedOne(ctx, r.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	out := make(map[entity.Category][]entity.RetrievalHit, len(indexes))
	for _, idx := range indexes {
		hits, err := search(idx, vec, k)
		if err != nil {
			return nil, err
		}
		out[idx.Category] = hits
	}
	return out, nil
}

// RetrieveQuestions persists the top-k hits of every requested question in
// every built category as top10/<category>/soru<id>_top<k>.json. A nil ids
// slice selects every question of the index.
func (r *Retriever) RetrieveQuestions(ctx context.Context, layout *workspace.Layout, ids []int, k int) error {
	lookup := vectorindex.LoadQuestions(layout)
	switch lookup.Status {
	case entity.LookupNotFound:
		return fmt.Errorf("%w: %s", entity.ErrReportNotIndexed, layout.ReportID())
	case entity.LookupBackendError:
		return lookup.Err
	}
	qidx := lookup.Value

	rows, err := selectRows(qidx, ids)
	if err != nil {
		return err
	}

	indexes, err := loadIndexes(ctx, layout)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, idx := range indexes {
		idx := idx
		g.Go(func() error {
			for _, row := range rows {
				if err := gctx.Err(); err != nil {
					return err
				}
				q := qidx.Questions[row]
				hits, err := search(idx, qidx.Vectors.Row(row), k)
				if err != nil {
					return fmt.Errorf("search %s for question %d: %w", idx.Category, q.ID, err)
				}
				if err := workspace.WriteJSON(layout.TopKFile(idx.Category, q.ID, k), hits); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ctxzap.Info(ctx, "top-k hits persisted",
		zap.Int("questions", len(rows)),
		zap.Int("categories", len(indexes)),
		zap.Int("k", k),
	)
	return nil
}

// Query merges the hits of every category for an ad-hoc question, orders them
// by raw score and keeps the best k. Scores are compared across categories as
// is; every index is built from the same embedder.
func (r *Retriever) Query(ctx context.Context, layout *workspace.Layout, question string, k int) ([]entity.RetrievalHit, error) {
	perCategory, err := r.SearchCategories(ctx, layout, question, k)
	if err != nil {
		return nil, err
	}

	var merged []entity.RetrievalHit
	for _, c := range entity.Categories() {
		for _, h := range perCategory[c] {
			h.Category = c
			merged = append(merged, h)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > k {
		merged = merged[:k]
	}
	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged, nil
}

func selectRows(qidx *vectorindex.QuestionIndex, ids []int) ([]int, error) {
	if ids == nil {
		rows := make([]int, len(qidx.Questions))
		for i := range rows {
			rows[i] = i
		}
		return rows, nil
	}

	rows := make([]int, 0, len(ids))
	for _, id := range ids {
		row, ok := qidx.Find(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", entity.ErrQuestionNotFound, id)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func loadIndexes(ctx context.Context, layout *workspace.Layout) ([]*vectorindex.CategoryIndex, error) {
	var out []*vectorindex.CategoryIndex
	for _, c := range entity.Categories() {
		lookup := vectorindex.LoadCategory(layout, c)
		switch lookup.Status {
		case entity.LookupFound:
			out = append(out, lookup.Value)
		case entity.LookupNotFound:
			ctxzap.Debug(ctx, "category index absent, skipping", zap.String("category", c.String()))
		default:
			return nil, fmt.Errorf("load %s index: %w", c, lookup.Err)
		}
	}
	return out, nil
}

func search(idx *vectorindex.CategoryIndex, vec []float32, k int) ([]entity.RetrievalHit, error) {
	results, err := idx.Vectors.Search(vec, k)
	if err != nil {
		return nil, err
	}

	hits := make([]entity.RetrievalHit, len(results))
	for i, res := range results {
		ch := idx.Chunks[res.Row]
		hits[i] = entity.RetrievalHit{
			Rank:          i + 1,
			Index:         res.Row,
			Score:         res.Score,
			ChunkText:     ch.ChunkText,
			SourceFile:    ch.SourceFile,
			CharLen:       ch.CharLen,
			SentenceCount: ch.SentenceCount,
		}
	}
	return hits, nil
}
