package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/integration/common"
	"github.com/futig/report-grounder/internal/pkg/retry"
	pkghttp "github.com/futig/report-grounder/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector talks to an OpenAI-compatible chat completion endpoint.
type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, "llm", logger),
		config:    cfg,
		logger:    logger,
	}
}

// Complete sends messages and returns the content of the first choice.
func (c *Connector) Complete(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	ctxzap.Info(ctx, "requesting chat completion",
		zap.String("model", c.config.Model),
		zap.Int("messages", len(messages)),
	)

	req := entity.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
	}

	answer, err := retry.Do(ctx, &c.config.Retry, pkghttp.IsRetryable, func(ctx context.Context) (string, error) {
		var resp entity.ChatCompletionResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp); err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("invalid chat completion response: no choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	ctxzap.Info(ctx, "chat completion received", zap.Int("answer_length", len(answer)))

	return answer, nil
}
