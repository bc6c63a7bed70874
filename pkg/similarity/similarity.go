// Package similarity provides the vector comparison primitives shared by
// the ranker, the neighbor graph builder and the projection engine.
package similarity

import (
	"math"
	"sort"
)

// Cosine computes the cosine similarity between two vectors, bounded in
// [-1, 1]. Defined as 0 when the vectors have different lengths or when
// either has zero norm.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// Scored pairs an item index with its similarity score.
type Scored struct {
	Index int
	Score float32
}

// TopK returns the k highest-scoring entries, descending. Ties resolve by
// the provided less function when given, otherwise by ascending index, so
// the order is always deterministic.
func TopK(scores []Scored, k int, tieLess func(a, b Scored) bool) []Scored {
	out := make([]Scored, len(scores))
	copy(out, scores)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if tieLess != nil {
			return tieLess(out[i], out[j])
		}
		return out[i].Index < out[j].Index
	})

	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}
