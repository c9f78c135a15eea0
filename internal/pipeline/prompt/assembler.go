// Package prompt assembles the grounded, citation-numbered prompt of a question.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/vectorindex"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	MinChunkChars  = 30
	MaxTotalChunks = 30
)

// Fragment is one cited passage of a prompt.
type Fragment struct {
	Number   int
	Category entity.Category
	Text     string
}

// Assemble builds the prompt of q from its expanded hits. Hits are taken in
// category order, each category in rank order. Texts shorter than
// MinChunkChars are dropped before numbering, then at most maxTotal fragments
// are kept and numbered from 1.
func Assemble(q entity.Question, hits map[entity.Category][]entity.ExpandedHit, maxTotal int) (entity.PromptRecord, []Fragment) {
	var fragments []Fragment
	for _, c := range entity.Categories() {
		for _, h := range hits[c] {
			if len(fragments) == maxTotal {
				break
			}
			text := strings.TrimSpace(h.Text())
			if utf8.RuneCountInString(text) < MinChunkChars {
				continue
			}
			fragments = append(fragments, Fragment{
				Number:   len(fragments) + 1,
				Category: c,
				Text:     text,
			})
		}
	}

	var lines []string
	var current entity.Category
	for _, f := range fragments {
		if f.Category != current {
			lines = append(lines, fmt.Sprintf("{<%s>=%s}", f.Category, f.Category))
			current = f.Category
		}
		lines = append(lines, fmt.Sprintf("(%d) %s", f.Number, f.Text))
	}

	soru := strings.TrimSpace(q.Soru)
	yordam := strings.TrimSpace(q.Yordam)
	text := fmt.Sprintf(promptTemplate, q.ID, soru, yordam, len(fragments), strings.Join(lines, "\n"))

	return entity.PromptRecord{
		Soru:      soru,
		Yordam:    yordam,
		Prompt:    strings.TrimSpace(text),
		UsedCount: len(fragments),
	}, fragments
}

var (
	categoryLine = regexp.MustCompile(`^\{<(\w+)>=\w+\}$`)
	fragmentLine = regexp.MustCompile(`^\((\d+)\) (.*)$`)
)

// ParseFragments recovers the numbered fragments of an assembled prompt.
// Lines following a fragment belong to it until the next fragment or category
// line.
func ParseFragments(p string) []Fragment {
	var (
		out     []Fragment
		current entity.Category
		started bool
	)
	for _, line := range strings.Split(p, "\n") {
		if m := categoryLine.FindStringSubmatch(line); m != nil {
			current = entity.Category(m[1])
			started = true
			continue
		}
		if !started {
			continue
		}
		if m := fragmentLine.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			out = append(out, Fragment{Number: n, Category: current, Text: m[2]})
			continue
		}
		if len(out) > 0 {
			out[len(out)-1].Text += "\n" + line
		}
	}
	return out
}

// LoadExpanded reads the expanded hit files of one question. Categories
// without a file contribute no hits.
func LoadExpanded(layout *workspace.Layout, questionID, k int) (map[entity.Category][]entity.ExpandedHit, error) {
	out := make(map[entity.Category][]entity.ExpandedHit, len(entity.Categories()))
	for _, c := range entity.Categories() {
		var hits []entity.ExpandedHit
		err := workspace.ReadJSON(layout.ExpandedFile(c, questionID, k), &hits)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load expanded %s hits: %w", c, err)
		}
		out[c] = hits
	}
	return out, nil
}

// Generate builds the prompt of questionID from the report's question index
// and expanded hits and writes PROMPTS/prompt_<id>.json.
func Generate(ctx context.Context, layout *workspace.Layout, questionID, k int) (entity.PromptRecord, error) {
	lookup := vectorindex.LoadQuestions(layout)
	switch lookup.Status {
	case entity.LookupNotFound:
		return entity.PromptRecord{}, fmt.Errorf("%w: %s", entity.ErrReportNotIndexed, layout.ReportID())
	case entity.LookupBackendError:
		return entity.PromptRecord{}, lookup.Err
	}

	row, ok := lookup.Value.Find(questionID)
	if !ok {
		return entity.PromptRecord{}, fmt.Errorf("%w: %d", entity.ErrQuestionNotFound, questionID)
	}

	hits, err := LoadExpanded(layout, questionID, k)
	if err != nil {
		return entity.PromptRecord{}, err
	}

	rec, _ := Assemble(lookup.Value.Questions[row], hits, MaxTotalChunks)
	if err := workspace.WriteJSON(layout.PromptFile(questionID), rec); err != nil {
		return entity.PromptRecord{}, err
	}

	ctxzap.Info(ctx, "prompt generated",
		zap.Int("question_id", questionID),
		zap.Int("fragments", rec.UsedCount),
		zap.Int("prompt_len", utf8.RuneCountInString(rec.Prompt)),
	)
	return rec, nil
}

// Load reads a previously generated prompt.
func Load(layout *workspace.Layout, questionID int) (entity.PromptRecord, error) {
	var rec entity.PromptRecord
	if err := workspace.ReadJSON(layout.PromptFile(questionID), &rec); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, fmt.Errorf("%w: prompt %d", entity.ErrQuestionNotFound, questionID)
		}
		return rec, err
	}
	return rec, nil
}
