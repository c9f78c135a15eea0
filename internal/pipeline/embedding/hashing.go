package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

const DefaultHashingDimension = 512

var tokenPattern = regexp.MustCompile(`\p{L}+|\p{N}+`)

// Hashing is an offline embedder that hashes word and character trigram
// features into a fixed number of signed buckets. It needs no corpus
// preparation, so vectors are stable across reports and runs.
type Hashing struct {
	dim int
}

func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDimension
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Name() string   { return "hashing" }
func (h *Hashing) Dimension() int { return h.dim }

func (h *Hashing) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float32 {
	v := make([]float32, h.dim)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		h.add(v, "w:"+tok, 1)

		runes := []rune("#" + tok + "#")
		for i := 0; i+3 <= len(runes); i++ {
			h.add(v, "c:"+string(runes[i:i+3]), 0.5)
		}
	}
	return v
}

func (h *Hashing) add(v []float32, feature string, weight float32) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()

	bucket := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}
