package callback

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/integration/common"
	pkghttp "github.com/futig/report-grounder/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector pushes finished answers to the outer API. Delivery failures are
// logged and never returned to the pipeline.
type Connector struct {
	config    config.OuterAPIConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
	now       func() time.Time
}

func NewConnector(
	cfg config.OuterAPIConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, "callback", logger),
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Enabled reports whether an outer API URL is configured.
func (c *Connector) Enabled() bool {
	return c.config.Url != ""
}

// SendAnswer sends an answer event
func (c *Connector) SendAnswer(ctx context.Context, requestID string, data *entity.CallbackAnswerData) {
	if !c.Enabled() {
		return
	}
	err := c.Send(ctx, requestID, &entity.CallbackEvent{
		Event: entity.CallbackEventTypeAnswer,
		Data:  data,
	})
	if err != nil {
		ctxzap.Warn(ctx, "failed to deliver answer to outer API", zap.Error(err))
	}
}

// SendError sends an error event
func (c *Connector) SendError(ctx context.Context, requestID string, message string, details map[string]any) {
	if !c.Enabled() {
		return
	}
	err := c.Send(ctx, requestID, &entity.CallbackEvent{
		Event: entity.CallbackEventTypeError,
		Data: &entity.CallbackErrorData{
			Error: entity.CallbackErrorDetails{
				Message: message,
				Details: details,
			},
		},
	})
	if err != nil {
		ctxzap.Warn(ctx, "failed to deliver error to outer API", zap.Error(err))
	}
}

func (c *Connector) Send(ctx context.Context, requestID string, event *entity.CallbackEvent) error {
	if event.Timestamp == "" {
		event.Timestamp = c.now().UTC().Format(time.RFC3339)
	}

	ctxzap.Debug(ctx, "sending outer API event",
		zap.String("event_type", string(event.Event)),
		zap.String("request_id", requestID),
		zap.String("timestamp", event.Timestamp),
	)

	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, event, nil,
		pkghttp.WithHeader("X-Request-ID", requestID),
	)
	if err != nil {
		return fmt.Errorf("failed to send event, event_type: %s, url: %s%s, error: %w", string(event.Event), c.config.Url, c.config.Endpoint, err)
	}

	ctxzap.Info(ctx, "outer API event sent",
		zap.String("event_type", string(event.Event)),
		zap.String("request_id", requestID),
	)
	return nil
}
