// Package embedding turns text into unit-length vectors for inner-product search.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/futig/report-grounder/internal/entity"
)

// Embedder converts texts into vectors. Implementations return one vector per
// input text in input order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Normalize scales v to unit L2 length in place. Zero vectors are left as is.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

// EmbedNormalized embeds texts with e and L2-normalizes every vector. Vectors of
// differing dimension are rejected with ErrDimensionMismatch.
func EmbedNormalized(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vecs, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: %s returned %d vectors for %d texts",
			entity.ErrBackendUnavailable, e.Name(), len(vecs), len(texts))
	}

	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim || dim == 0 {
			return nil, fmt.Errorf("%w: vector %d has %d dims, want %d", entity.ErrDimensionMismatch, i, len(v), dim)
		}
		Normalize(v)
	}
	return vecs, nil
}

// EmbedOne is EmbedNormalized for a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := EmbedNormalized(ctx, e, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
