// Package ranker scores candidate vectors against a query by cosine similarity.
package ranker

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// Candidate is a vector to be ranked. Index identifies it in the caller's slice.
type Candidate struct {
	Index  int
	Vector []float32
}

// Ranked is a scored candidate.
type Ranked struct {
	Index int
	Score float64
}

// Cosine returns the cosine similarity of a and b. A zero norm is treated as 1,
// so a zero vector scores 0 against anything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)
	if normA == 0 {
		normA = 1
	}
	if normB == 0 {
		normB = 1
	}

	score := dot / (normA * normB)
	// rounding can push parallel vectors a hair outside [-1, 1]
	return math.Max(-1, math.Min(1, score)), nil
}

// Rank scores every candidate against query and returns the best k, highest
// score first. Equal scores keep candidate order. k is clamped to
// [1, domain.MaxTopK] and never exceeds the number of candidates.
func Rank(query []float32, candidates []Candidate, k int) ([]Ranked, error) {
	if len(candidates) == 0 {
		return []Ranked{}, nil
	}

	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		score, err := Cosine(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", c.Index, err)
		}
		ranked[i] = Ranked{Index: c.Index, Score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	k = max(1, min(k, domain.MaxTopK))
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, nil
}
