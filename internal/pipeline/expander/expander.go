package expander

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Expander reads persisted top-k hits, expands them against the cleaned
// source text and writes the expanded hit files.
type Expander struct {
	layout  *workspace.Layout
	sources map[string]entity.Lookup[string]
}

func New(layout *workspace.Layout) *Expander {
	return &Expander{
		layout:  layout,
		sources: make(map[string]entity.Lookup[string]),
	}
}

// ExpandQuestion expands the top-k hits of one question in every category that
// has them. Categories without a hit file are skipped.
func (e *Expander) ExpandQuestion(ctx context.Context, questionID, k int) (map[entity.Category][]entity.ExpandedHit, error) {
	out := make(map[entity.Category][]entity.ExpandedHit, len(entity.Categories()))
	for _, c := range entity.Categories() {
		expanded, err := e.expandFile(ctx, c, e.layout.TopKFile(c, questionID, k), e.layout.ExpandedFile(c, questionID, k))
		if errors.Is(err, fs.ErrNotExist) {
			ctxzap.Debug(ctx, "no hits for category", zap.String("category", c.String()), zap.Int("question_id", questionID))
			continue
		}
		if err != nil {
			return nil, err
		}
		out[c] = expanded
	}
	return out, nil
}

// ExpandAll expands every hit file found under top10/.
func (e *Expander) ExpandAll(ctx context.Context) (int, error) {
	files := 0
	for _, c := range entity.Categories() {
		paths, err := filepath.Glob(filepath.Join(e.layout.TopKDir(c), "*.json"))
		if err != nil {
			return files, fmt.Errorf("list %s hits: %w", c, err)
		}
		for _, p := range paths {
			if err := ctx.Err(); err != nil {
				return files, err
			}
			dst := filepath.Join(e.layout.ExpandedDir(c), filepath.Base(p))
			if _, err := e.expandFile(ctx, c, p, dst); err != nil {
				return files, err
			}
			files++
		}
	}
	ctxzap.Info(ctx, "hit files expanded", zap.Int("files", files))
	return files, nil
}

func (e *Expander) expandFile(ctx context.Context, c entity.Category, src, dst string) ([]entity.ExpandedHit, error) {
	var hits []entity.RetrievalHit
	if err := workspace.ReadJSON(src, &hits); err != nil {
		return nil, err
	}

	extra := c.Profile().ExpansionChars
	expanded := make([]entity.ExpandedHit, len(hits))
	for i, h := range hits {
		expanded[i] = entity.ExpandedHit{RetrievalHit: h}

		text := e.source(h.SourceFile)
		switch text.Status {
		case entity.LookupFound:
			expanded[i].ExpandedText = ExpandSnippet(h.ChunkText, text.Value, extra)
		case entity.LookupNotFound:
			ctxzap.Warn(ctx, "source text missing, keeping chunk unexpanded", zap.String("source_file", h.SourceFile))
			expanded[i].ExpandedText = clean(h.ChunkText)
		default:
			return nil, fmt.Errorf("read source %s: %w", h.SourceFile, text.Err)
		}
	}

	if err := workspace.WriteJSON(dst, expanded); err != nil {
		return nil, err
	}
	return expanded, nil
}

func (e *Expander) source(sourceFile string) entity.Lookup[string] {
	if l, ok := e.sources[sourceFile]; ok {
		return l
	}

	if sourceFile == "" {
		return entity.NotFound[string]()
	}

	var l entity.Lookup[string]
	data, err := os.ReadFile(e.layout.CleanTextFile(sourceFile))
	switch {
	case err == nil:
		l = entity.Found(string(data))
	case errors.Is(err, fs.ErrNotExist):
		l = entity.NotFound[string]()
	default:
		l = entity.BackendError[string](err)
	}

	e.sources[sourceFile] = l
	return l
}
