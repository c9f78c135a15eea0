package llm

import (
	"context"
	"fmt"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/prompt"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockQuoteRunes = 200

// MockConnector answers from the prompt itself: it quotes the first cited
// fragment, or returns the not-found sentinel when the prompt has none.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Complete(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	ctxzap.Info(ctx, "[MOCK] requesting chat completion", zap.Int("messages", len(messages)))

	if len(messages) == 0 {
		return entity.NotFoundSentinel, nil
	}

	fragments := prompt.ParseFragments(messages[len(messages)-1].Content)
	if len(fragments) == 0 {
		return entity.NotFoundSentinel, nil
	}

	first := fragments[0]
	text := []rune(first.Text)
	if len(text) > mockQuoteRunes {
		text = text[:mockQuoteRunes]
	}
	return fmt.Sprintf("%s [%d]", string(text), first.Number), nil
}
