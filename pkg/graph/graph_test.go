package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMatrix = [][]float32{
	{1, 0, 0},
	{0.9, 0.1, 0},
	{0, 1, 0},
	{0, 0.9, 0.1},
}

func TestBuild_NeverIncludesSelf(t *testing.T) {
	edges, err := Build(testMatrix, 2)
	require.NoError(t, err)
	require.Len(t, edges, 8)

	for _, e := range edges {
		assert.NotEqual(t, e.Source, e.Target, "self must be excluded")
	}
}

func TestBuild_PicksTrueNeighbors(t *testing.T) {
	edges, err := Build(testMatrix, 1)
	require.NoError(t, err)
	require.Len(t, edges, 4)

	// Items 0/1 point at each other, as do 2/3.
	want := map[int]int{0: 1, 1: 0, 2: 3, 3: 2}
	for _, e := range edges {
		assert.Equal(t, want[e.Source], e.Target)
	}
}

func TestBuild_KCoversAllOthers(t *testing.T) {
	// k >= n-1 yields every other item as a neighbor.
	edges, err := Build(testMatrix, 3)
	require.NoError(t, err)

	perSource := make(map[int]map[int]bool)
	for _, e := range edges {
		if perSource[e.Source] == nil {
			perSource[e.Source] = make(map[int]bool)
		}
		perSource[e.Source][e.Target] = true
	}
	for i := 0; i < 4; i++ {
		assert.Len(t, perSource[i], 3)
		assert.False(t, perSource[i][i])
	}
}

func TestBuild_InvalidK(t *testing.T) {
	_, err := Build(testMatrix, 0)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestQueryEdges(t *testing.T) {
	query := []float32{1, 0.05, 0}
	edges, err := QueryEdges(testMatrix, query, 2)
	require.NoError(t, err)
	require.Len(t, edges, 2)

	assert.Equal(t, QuerySource, edges[0].Source)
	assert.Equal(t, 0, edges[0].Target, "closest catalog vector first")
	assert.GreaterOrEqual(t, edges[0].Similarity, edges[1].Similarity)
}

func TestQueryEdges_TiesBreakToLowerIndex(t *testing.T) {
	matrix := [][]float32{{0, 1}, {0, 1}, {1, 0}}
	edges, err := QueryEdges(matrix, []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, 0, edges[0].Target)
	assert.Equal(t, 1, edges[1].Target)
}
