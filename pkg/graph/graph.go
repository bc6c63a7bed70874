// Package graph computes the k-nearest-neighbor edge lists that drive the
// interactive similarity graph. Neighbors are always selected in the
// original high-dimensional space: 2D projected distances distort true
// similarity and must never be used here.
package graph

import (
	"errors"

	"github.com/brandonyuanCS/periph4all/pkg/similarity"
)

// QuerySource is the source index used for query-to-catalog edges.
const QuerySource = -1

// Edge links a source item to one of its nearest neighbors, weighted by
// cosine similarity. Stored directed from the item whose neighborhood was
// explored.
type Edge struct {
	Source     int
	Target     int
	Similarity float32
}

// ErrInvalidK reports a non-positive neighbor count.
var ErrInvalidK = errors.New("graph: neighbor count must be positive")

// Build returns, for every catalog item, edges to its k most similar other
// items. Self-edges are excluded; ties resolve to the lower item index.
// Brute force O(n²) over the catalog, which is fine at catalog sizes in
// the hundreds but is the first thing to revisit if the catalog grows by
// orders of magnitude.
func Build(matrix [][]float32, k int) ([]Edge, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	n := len(matrix)
	edges := make([]Edge, 0, n*k)

	for i := 0; i < n; i++ {
		scored := make([]similarity.Scored, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			scored = append(scored, similarity.Scored{
				Index: j,
				Score: similarity.Cosine(matrix[i], matrix[j]),
			})
		}

		for _, s := range similarity.TopK(scored, k, nil) {
			edges = append(edges, Edge{Source: i, Target: s.Index, Similarity: s.Score})
		}
	}

	return edges, nil
}

// QueryEdges returns edges from the query point to its k most similar
// catalog items.
func QueryEdges(matrix [][]float32, query []float32, k int) ([]Edge, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	scored := make([]similarity.Scored, 0, len(matrix))
	for i := range matrix {
		scored = append(scored, similarity.Scored{
			Index: i,
			Score: similarity.Cosine(query, matrix[i]),
		})
	}

	top := similarity.TopK(scored, k, nil)
	edges := make([]Edge, 0, len(top))
	for _, s := range top {
		edges = append(edges, Edge{Source: QuerySource, Target: s.Index, Similarity: s.Score})
	}
	return edges, nil
}
