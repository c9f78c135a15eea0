// Package answer sends generated prompts to a chat completion backend and
// stores the answers.
package answer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/prompt"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	systemMarker = "SYSTEM:"
	userMarker   = "USER:"
)

// ChatCompleter answers one chat conversation.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []entity.ChatMessage) (string, error)
}

// Result summarizes one sent prompt.
type Result struct {
	QuestionID int
	Path       string
	Status     entity.AnswerStatus
	Answer     string
}

type Sender struct {
	client  ChatCompleter
	limiter *rate.Limiter
}

// NewSender paces requests so that consecutive calls are at least delay
// apart. A zero delay disables pacing.
func NewSender(client ChatCompleter, delay time.Duration) *Sender {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Sender{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// SplitPrompt turns a prompt into chat messages. Text before the first USER:
// marker becomes the system message with the SYSTEM: marker removed; a prompt
// without the marker is sent as a single user message.
func SplitPrompt(p string) []entity.ChatMessage {
	system, user, ok := strings.Cut(p, userMarker)
	if !ok {
		return []entity.ChatMessage{{Role: "user", Content: p}}
	}
	return []entity.ChatMessage{
		{Role: "system", Content: strings.TrimSpace(strings.ReplaceAll(system, systemMarker, ""))},
		{Role: "user", Content: strings.TrimSpace(user)},
	}
}

// Ask sends one prompt and returns the trimmed answer.
func (s *Sender) Ask(ctx context.Context, p string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	answer, err := s.client.Complete(ctx, SplitPrompt(p))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// SendOne answers the stored prompt of questionID and writes
// ANSWERS/answer_<id>.json. A failed request is returned as an error and no
// answer file is written.
func (s *Sender) SendOne(ctx context.Context, layout *workspace.Layout, questionID int) (Result, error) {
	rec, err := prompt.Load(layout, questionID)
	if err != nil {
		return Result{}, err
	}

	answer, err := s.Ask(ctx, rec.Prompt)
	if err != nil {
		return Result{}, fmt.Errorf("answer question %d: %w", questionID, err)
	}

	return s.store(layout, questionID, rec, answer, entity.ClassifyAnswer(answer))
}

// SendAll answers every stored prompt in question id order. A failed request
// is recorded as the answer text with status error and the batch continues.
func (s *Sender) SendAll(ctx context.Context, layout *workspace.Layout) ([]Result, error) {
	ids, err := promptIDs(layout)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no prompts in %s", entity.ErrNoQuestions, layout.PromptDir())
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		rec, err := prompt.Load(layout, id)
		if err != nil {
			return results, err
		}

		status := entity.AnswerStatusError
		answer, err := s.Ask(ctx, rec.Prompt)
		switch {
		case ctx.Err() != nil:
			return results, ctx.Err()
		case err != nil:
			ctxzap.Warn(ctx, "answer request failed", zap.Int("question_id", id), zap.Error(err))
			answer = err.Error()
		default:
			status = entity.ClassifyAnswer(answer)
		}

		res, err := s.store(layout, id, rec, answer, status)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	ctxzap.Info(ctx, "answers stored", zap.Int("count", len(results)))
	return results, nil
}

func (s *Sender) store(layout *workspace.Layout, questionID int, rec entity.PromptRecord, answer string, status entity.AnswerStatus) (Result, error) {
	path := layout.AnswerFile(questionID)
	if err := workspace.WriteJSON(path, entity.AnswerRecord{
		Soru:   rec.Soru,
		Yordam: rec.Yordam,
		Cevap:  answer,
	}); err != nil {
		return Result{}, err
	}
	return Result{QuestionID: questionID, Path: path, Status: status, Answer: answer}, nil
}

// LoadAnswer reads a stored answer.
func LoadAnswer(layout *workspace.Layout, questionID int) (entity.AnswerRecord, error) {
	var rec entity.AnswerRecord
	if err := workspace.ReadJSON(layout.AnswerFile(questionID), &rec); err != nil {
		return rec, fmt.Errorf("%w: question %d: %v", entity.ErrAnswerNotFound, questionID, err)
	}
	return rec, nil
}

func promptIDs(layout *workspace.Layout) ([]int, error) {
	paths, err := filepath.Glob(filepath.Join(layout.PromptDir(), "prompt_*.json"))
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), "prompt_"), ".json")
		id, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
