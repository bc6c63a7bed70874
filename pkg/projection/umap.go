// Package projection maps the high-dimensional catalog matrix to 2D for
// visual exploration using UMAP, a nonlinear technique that preserves
// local neighborhood structure. The fit is cached per catalog fingerprint;
// query points are placed with the already-fitted model, never by
// refitting, so the catalog layout stays stable across sessions.
//
// Coordinates carry no guaranteed scale or orientation across refits; only
// relative distances within one fitted model are meaningful.
package projection

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Config holds the UMAP hyperparameters.
type Config struct {
	NNeighbors         int
	MinDist            float64
	Spread             float64
	NEpochs            int
	LearningRate       float64
	NegativeSampleRate int
	Seed               int64
}

// DefaultConfig mirrors the upstream umap-learn defaults, with a fixed
// seed so repeated fits of the same matrix agree.
func DefaultConfig() Config {
	return Config{
		NNeighbors:         15,
		MinDist:            0.1,
		Spread:             1.0,
		NEpochs:            200,
		LearningRate:       1.0,
		NegativeSampleRate: 5,
		Seed:               42,
	}
}

// Fitted is a completed UMAP fit: the source vectors, their 2D layout and
// the kernel parameters needed to place new points. Immutable once built,
// safe for concurrent Transform calls.
type Fitted struct {
	cfg    Config
	data   [][]float64 // source vectors, float64 for precision
	coords [][]float64 // [n][2] layout
	a, b   float64
}

// Fit reduces the matrix to 2D. Returns nil for an empty matrix; matrices
// too small for a meaningful neighborhood fall back to a trivial layout.
func Fit(matrix [][]float32, cfg Config) *Fitted {
	if len(matrix) == 0 {
		return nil
	}

	n := len(matrix)
	data := toFloat64(matrix)

	k := cfg.NNeighbors
	if k >= n {
		k = n - 1
	}

	if n < 3 || len(matrix[0]) < 2 || k < 2 {
		return &Fitted{cfg: cfg, data: data, coords: trivialLayout(n), a: 1, b: 1}
	}

	neighbors, dists := nearestNeighbors(data, k)
	sigmas, rhos := smoothDistances(dists, float64(k))
	graph := fuzzyGraph(neighbors, dists, sigmas, rhos, n)

	a, b := fitKernel(cfg.Spread, cfg.MinDist)

	coords := initialLayout(graph, n, cfg.Seed)
	rng := rand.New(rand.NewSource(cfg.Seed + 1))
	optimize(coords, graph, a, b, cfg, rng)

	return &Fitted{cfg: cfg, data: data, coords: coords, a: a, b: b}
}

// Coords returns the fitted 2D layout, one [x, y] pair per input row.
func (f *Fitted) Coords() [][]float64 { return f.coords }

// Transform places a new point into the fitted layout without refitting:
// the membership-weighted barycenter of its nearest fitted neighbors,
// using the same exponential kernel UMAP uses for membership strengths.
// Deterministic for a fixed fit and query.
func (f *Fitted) Transform(query []float32) (x, y float64) {
	if len(f.data) == 0 {
		return 0, 0
	}

	q := make([]float64, len(query))
	for i, v := range query {
		q[i] = float64(v)
	}

	type neighbor struct {
		dist float64
		idx  int
	}
	all := make([]neighbor, len(f.data))
	for i, row := range f.data {
		all[i] = neighbor{dist: euclidean(q, row), idx: i}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].idx < all[j].idx
	})

	k := f.cfg.NNeighbors
	if k > len(all) {
		k = len(all)
	}
	nearest := all[:k]

	dists := make([]float64, k)
	for i, nb := range nearest {
		dists[i] = nb.dist
	}
	sigma, rho := smoothPoint(dists, float64(k))

	var wsum, xs, ys float64
	for _, nb := range nearest {
		w := 1.0
		if d := nb.dist - rho; d > 0 && sigma > 0 {
			w = math.Exp(-d / sigma)
		}
		wsum += w
		xs += w * f.coords[nb.idx][0]
		ys += w * f.coords[nb.idx][1]
	}
	if wsum == 0 {
		return f.coords[nearest[0].idx][0], f.coords[nearest[0].idx][1]
	}
	return xs / wsum, ys / wsum
}

func toFloat64(matrix [][]float32) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = float64(v)
		}
	}
	return out
}

// trivialLayout spreads points on a line; used when the input is too small
// for neighborhood estimation.
func trivialLayout(n int) [][]float64 {
	coords := make([][]float64, n)
	for i := range coords {
		coords[i] = []float64{float64(i), 0}
	}
	return coords
}

// nearestNeighbors computes exact k-NN by brute force, O(n²). Fine for a
// catalog in the hundreds; an approximate index would be needed well
// before this becomes the bottleneck.
func nearestNeighbors(data [][]float64, k int) (indices [][]int, dists [][]float64) {
	n := len(data)
	indices = make([][]int, n)
	dists = make([][]float64, n)

	type neighbor struct {
		dist float64
		idx  int
	}

	for i := 0; i < n; i++ {
		all := make([]neighbor, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			all = append(all, neighbor{dist: euclidean(data[i], data[j]), idx: j})
		}
		sort.Slice(all, func(a, b int) bool {
			if all[a].dist != all[b].dist {
				return all[a].dist < all[b].dist
			}
			return all[a].idx < all[b].idx
		})

		indices[i] = make([]int, k)
		dists[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			indices[i][j] = all[j].idx
			dists[i][j] = all[j].dist
		}
	}

	return indices, dists
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// smoothDistances finds, per point, the bandwidth sigma and local
// connectivity distance rho such that the fuzzy memberships of its
// neighbors sum to log2(k).
func smoothDistances(dists [][]float64, k float64) (sigmas, rhos []float64) {
	n := len(dists)
	sigmas = make([]float64, n)
	rhos = make([]float64, n)
	for i := 0; i < n; i++ {
		sigmas[i], rhos[i] = smoothPoint(dists[i], k)
	}
	return sigmas, rhos
}

// smoothPoint is the single-point binary search shared by the fit and the
// out-of-sample transform.
func smoothPoint(dists []float64, k float64) (sigma, rho float64) {
	const (
		iterations = 64
		tolerance  = 1e-5
		minScale   = 1e-3
	)

	for _, d := range dists {
		if d > 0 {
			rho = d
			break
		}
	}

	target := math.Log2(k)
	lo, hi, mid := 0.0, math.Inf(1), 1.0

	for iter := 0; iter < iterations; iter++ {
		sum := 0.0
		for _, d := range dists {
			if adj := d - rho; adj > 0 {
				sum += math.Exp(-adj / mid)
			} else {
				sum += 1.0
			}
		}

		if math.Abs(sum-target) < tolerance {
			break
		}
		if sum > target {
			hi = mid
		} else {
			lo = mid
		}
		if math.IsInf(hi, 1) {
			mid *= 2
		} else {
			mid = (lo + hi) / 2
		}
	}
	sigma = mid

	var meanDist float64
	for _, d := range dists {
		meanDist += d
	}
	if len(dists) > 0 {
		meanDist /= float64(len(dists))
	}
	if min := minScale * meanDist; sigma < min {
		sigma = min
	}

	return sigma, rho
}

// sparseEdge is one entry of the fuzzy graph in coordinate form.
type sparseEdge struct {
	row, col int
	weight   float64
}

// fuzzyGraph builds the symmetrized fuzzy simplicial set from the k-NN
// results, applying the fuzzy union P(A∪B) = P(A) + P(B) - P(A)P(B).
func fuzzyGraph(neighbors [][]int, dists [][]float64, sigmas, rhos []float64, n int) []sparseEdge {
	type key struct{ r, c int }
	directed := make(map[key]float64, n*len(neighbors[0]))

	for i := range neighbors {
		for j, nb := range neighbors[i] {
			w := 1.0
			if d := dists[i][j] - rhos[i]; d > 0 && sigmas[i] > 0 {
				w = math.Exp(-d / sigmas[i])
			}
			directed[key{i, nb}] = w
		}
	}

	union := make(map[key]float64, len(directed))
	for e, w := range directed {
		wt := directed[key{e.c, e.r}]
		if u := w + wt - w*wt; u > 0 {
			union[e] = u
		}
	}

	edges := make([]sparseEdge, 0, len(union))
	for e, w := range union {
		edges = append(edges, sparseEdge{row: e.r, col: e.c, weight: w})
	}
	// Deterministic edge order keeps the SGD sampling reproducible.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].row != edges[j].row {
			return edges[i].row < edges[j].row
		}
		return edges[i].col < edges[j].col
	})

	return edges
}

// fitKernel fits f(x) = 1 / (1 + a·x^(2b)) to the target distance curve by
// grid search. Coarse but stable, and only runs once per fit.
func fitKernel(spread, minDist float64) (a, b float64) {
	const points = 300
	xs := make([]float64, points)
	ys := make([]float64, points)
	for i := 0; i < points; i++ {
		xs[i] = float64(i) / float64(points-1) * spread * 3
		if xs[i] < minDist {
			ys[i] = 1.0
		} else {
			ys[i] = math.Exp(-(xs[i] - minDist) / spread)
		}
	}

	bestA, bestB, bestErr := 1.0, 1.0, math.Inf(1)
	for ca := 0.1; ca <= 10.0; ca += 0.1 {
		for cb := 0.1; cb <= 2.0; cb += 0.05 {
			var err float64
			for i := 0; i < points; i++ {
				diff := 1.0/(1.0+ca*math.Pow(xs[i], 2*cb)) - ys[i]
				err += diff * diff
			}
			if err < bestErr {
				bestErr, bestA, bestB = err, ca, cb
			}
		}
	}
	return bestA, bestB
}

// initialLayout seeds the 2D embedding: spectral initialization from the
// graph Laplacian for larger inputs, random for small ones where spectral
// structure adds nothing.
func initialLayout(edges []sparseEdge, n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))

	if coords := spectralLayout(edges, n); coords != nil {
		for i := range coords {
			for j := range coords[i] {
				coords[i][j] += (rng.Float64() - 0.5) * 0.0001
			}
		}
		return coords
	}

	coords := make([][]float64, n)
	for i := range coords {
		coords[i] = []float64{(rng.Float64() - 0.5) * 10, (rng.Float64() - 0.5) * 10}
	}
	return coords
}

// spectralLayout embeds via the smallest non-trivial eigenvectors of the
// normalized graph Laplacian. Skipped below 50 points.
func spectralLayout(edges []sparseEdge, n int) [][]float64 {
	if n < 50 {
		return nil
	}

	adj := mat.NewDense(n, n, nil)
	for _, e := range edges {
		adj.Set(e.row, e.col, e.weight)
	}

	degrees := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			degrees[i] += adj.At(i, j)
		}
	}

	laplacian := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		laplacian.Set(i, i, 1.0)
		for j := 0; j < n; j++ {
			if degrees[i] > 0 && degrees[j] > 0 {
				norm := adj.At(i, j) / math.Sqrt(degrees[i]*degrees[j])
				laplacian.Set(i, j, laplacian.At(i, j)-norm)
			}
		}
	}

	var eigen mat.Eigen
	if ok := eigen.Factorize(laplacian, mat.EigenRight); !ok {
		return nil
	}

	values := eigen.Values(nil)
	var vectors mat.CDense
	eigen.VectorsTo(&vectors)

	type pair struct {
		val float64
		idx int
	}
	pairs := make([]pair, len(values))
	for i, v := range values {
		pairs[i] = pair{real(v), i}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].val < pairs[j].val })

	coords := make([][]float64, n)
	for i := 0; i < n; i++ {
		coords[i] = make([]float64, 2)
		for d := 0; d < 2; d++ {
			if d+1 < len(pairs) {
				coords[i][d] = real(vectors.At(i, pairs[d+1].idx))
			}
		}
	}

	// Rescale each axis to a workable range for the SGD phase.
	for d := 0; d < 2; d++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < n; i++ {
			lo = math.Min(lo, coords[i][d])
			hi = math.Max(hi, coords[i][d])
		}
		if scale := hi - lo; scale > 0 {
			for i := 0; i < n; i++ {
				coords[i][d] = (coords[i][d] - lo) / scale * 10
			}
		}
	}

	return coords
}

// optimize refines the layout in place with stochastic gradient descent:
// attraction along graph edges, repulsion against negative samples.
func optimize(coords [][]float64, edges []sparseEdge, a, b float64, cfg Config, rng *rand.Rand) {
	n := len(coords)
	if len(edges) == 0 || n < 2 {
		return
	}

	maxWeight := 0.0
	for _, e := range edges {
		if e.weight > maxWeight {
			maxWeight = e.weight
		}
	}
	if maxWeight == 0 {
		maxWeight = 1.0
	}

	// Stronger edges are sampled at shorter intervals.
	epochsPerSample := make([]float64, len(edges))
	nextSample := make([]float64, len(edges))
	for i, e := range edges {
		if e.weight > 0 {
			epochsPerSample[i] = maxWeight / e.weight
			if epochsPerSample[i] < 1 {
				epochsPerSample[i] = 1
			}
		} else {
			epochsPerSample[i] = float64(cfg.NEpochs) + 1
		}
		nextSample[i] = epochsPerSample[i]
	}

	negatives := cfg.NegativeSampleRate
	if negatives < 1 {
		negatives = 1
	}

	for epoch := 0; epoch < cfg.NEpochs; epoch++ {
		alpha := cfg.LearningRate * (1.0 - float64(epoch)/float64(cfg.NEpochs))
		if alpha < 0.0001 {
			alpha = 0.0001
		}

		for i, e := range edges {
			if nextSample[i] > float64(epoch) {
				continue
			}

			current, other := coords[e.row], coords[e.col]

			if distSq := squaredDist(current, other); distSq > 0 {
				grad := -2.0 * a * b * math.Pow(distSq, b-1.0)
				grad /= a*math.Pow(distSq, b) + 1.0
				for d := range current {
					current[d] += clipGrad(grad*(current[d]-other[d])) * alpha
				}
			}

			for s := 0; s < negatives; s++ {
				neg := rng.Intn(n)
				if neg == e.row {
					continue
				}
				distSq := squaredDist(current, coords[neg])
				var grad float64
				if distSq > 0.001 {
					grad = 2.0 * b / ((0.001 + distSq) * (a*math.Pow(distSq, b) + 1))
				}
				if grad > 0 {
					for d := range current {
						current[d] += clipGrad(grad*(current[d]-coords[neg][d])) * alpha
					}
				}
			}

			nextSample[i] += epochsPerSample[i]
		}
	}
}

func squaredDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func clipGrad(v float64) float64 {
	if v > 4.0 {
		return 4.0
	}
	if v < -4.0 {
		return -4.0
	}
	return v
}
