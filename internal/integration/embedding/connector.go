package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/futig/report-grounder/internal/config"
	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/integration/common"
	"github.com/futig/report-grounder/internal/pkg/retry"
	pkghttp "github.com/futig/report-grounder/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector embeds texts through an OpenAI-compatible /embeddings endpoint.
type Connector struct {
	config     config.EmbeddingConnectorConfig
	dimensions int
	connector  *pkghttp.Connector
	logger     *zap.Logger
}

// NewConnector returns a connector that asks for dimensions-sized vectors.
// Zero leaves the model default.
func NewConnector(cfg config.EmbeddingConnectorConfig, dimensions int, logger *zap.Logger) *Connector {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 64
	}
	return &Connector{
		config:     cfg,
		dimensions: dimensions,
		connector:  common.NewBaseConnector(cfg.HTTPClientConfig, "embedding", logger),
		logger:     logger,
	}
}

func (c *Connector) Name() string {
	return "openai:" + c.config.Model
}

// Embed returns one vector per text in input order. Texts are sent in
// batches of BatchSize.
func (c *Connector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.config.BatchSize {
		end := min(start+c.config.BatchSize, len(texts))

		vecs, err := retry.Do(ctx, &c.config.Retry, pkghttp.IsRetryable, func(ctx context.Context) ([][]float32, error) {
			return c.embedBatch(ctx, texts[start:end])
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: embed batch %d-%d: %v", entity.ErrBackendUnavailable, start, end, err)
		}
		out = append(out, vecs...)
	}

	ctxzap.Debug(ctx, "texts embedded", zap.Int("count", len(out)), zap.String("model", c.config.Model))
	return out, nil
}

func (c *Connector) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	req := entity.EmbeddingRequest{
		Model:      c.config.Model,
		Input:      batch,
		Dimensions: c.dimensions,
	}

	var resp entity.EmbeddingResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(batch))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if d.Index != i {
			return nil, fmt.Errorf("embedding response is missing index %d", i)
		}
		v := make([]float32, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float32(x)
		}
		vecs[i] = v
	}
	return vecs, nil
}
