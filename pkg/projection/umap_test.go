package projection

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusteredVectors builds two well-separated clusters of unit-ish vectors.
func clusteredVectors(perCluster, dim int) [][]float32 {
	rng := rand.New(rand.NewSource(7))
	vectors := make([][]float32, 0, perCluster*2)
	for c := 0; c < 2; c++ {
		for i := 0; i < perCluster; i++ {
			v := make([]float32, dim)
			for d := 0; d < dim; d++ {
				base := float32(0)
				if (d < dim/2) == (c == 0) {
					base = 1
				}
				v[d] = base + float32(rng.NormFloat64())*0.05
			}
			vectors = append(vectors, v)
		}
	}
	return vectors
}

func TestFit_PreservesClusterStructure(t *testing.T) {
	vectors := clusteredVectors(12, 16)
	fitted := Fit(vectors, DefaultConfig())
	require.NotNil(t, fitted)

	coords := fitted.Coords()
	require.Len(t, coords, 24)

	// Mean intra-cluster 2D distance must be smaller than inter-cluster.
	dist := func(i, j int) float64 {
		dx := coords[i][0] - coords[j][0]
		dy := coords[i][1] - coords[j][1]
		return math.Sqrt(dx*dx + dy*dy)
	}

	var intra, inter float64
	var nIntra, nInter int
	for i := 0; i < 24; i++ {
		for j := i + 1; j < 24; j++ {
			if (i < 12) == (j < 12) {
				intra += dist(i, j)
				nIntra++
			} else {
				inter += dist(i, j)
				nInter++
			}
		}
	}
	assert.Less(t, intra/float64(nIntra), inter/float64(nInter))
}

func TestFit_DeterministicForFixedSeed(t *testing.T) {
	vectors := clusteredVectors(10, 8)

	a := Fit(vectors, DefaultConfig())
	b := Fit(vectors, DefaultConfig())
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.Coords(), b.Coords())
}

func TestFit_EmptyAndTiny(t *testing.T) {
	assert.Nil(t, Fit(nil, DefaultConfig()))

	// Two points are below the neighborhood minimum but must still get
	// distinct coordinates.
	fitted := Fit([][]float32{{1, 0}, {0, 1}}, DefaultConfig())
	require.NotNil(t, fitted)
	coords := fitted.Coords()
	require.Len(t, coords, 2)
	assert.NotEqual(t, coords[0], coords[1])
}

func TestTransform_DeterministicAndLocal(t *testing.T) {
	vectors := clusteredVectors(12, 16)
	fitted := Fit(vectors, DefaultConfig())
	require.NotNil(t, fitted)

	// A query equal to a catalog vector lands near that vector's 2D
	// position, and transforming twice gives identical coordinates.
	query := vectors[3]
	x1, y1 := fitted.Transform(query)
	x2, y2 := fitted.Transform(query)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)

	coords := fitted.Coords()
	queryToOwn := math.Hypot(x1-coords[3][0], y1-coords[3][1])
	queryToOther := math.Hypot(x1-coords[20][0], y1-coords[20][1])
	assert.Less(t, queryToOwn, queryToOther,
		"query must land nearer its own cluster than the other one")
}

func TestTransform_DoesNotMutateFit(t *testing.T) {
	vectors := clusteredVectors(10, 8)
	fitted := Fit(vectors, DefaultConfig())
	require.NotNil(t, fitted)

	before := make([][]float64, len(fitted.Coords()))
	for i, c := range fitted.Coords() {
		before[i] = append([]float64(nil), c...)
	}

	fitted.Transform(vectors[0])
	assert.Equal(t, before, fitted.Coords(), "transform must never refit the layout")
}
