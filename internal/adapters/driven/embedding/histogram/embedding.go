// Package histogram provides a deterministic, dependency free embedder.
//
// Each vector is a histogram of the text's Unicode code points folded modulo
// the dimension and scaled to unit length. It carries no semantics beyond
// shared characters, which makes it a stand-in for a real model in tests and
// offline installs while keeping the Embedder contract intact.
package histogram

import (
	"context"
	"math"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// ModelName is reported by every histogram embedder.
const ModelName = "codepoint-histogram"

// Embedder maps text to a normalized code point histogram.
type Embedder struct {
	dimensions int
}

// New creates a histogram embedder producing vectors of the given size.
// A non-positive size selects domain.DefaultDimensions.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = domain.DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed counts each code point into bucket (code point mod D) and
// L2-normalizes the counts. Empty text yields the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make([]float64, e.dimensions)
	for _, r := range text {
		counts[int(r)%e.dimensions]++
	}

	var sum float64
	for _, c := range counts {
		sum += c * c
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}

	vec := make([]float32, e.dimensions)
	for i, c := range counts {
		vec[i] = float32(c / norm)
	}
	return vec, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string {
	return ModelName
}
