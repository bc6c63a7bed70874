package projection

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/vectorstore"
)

// Point is one item in the 2D layout.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Index int     `json:"index"`
	Name  string  `json:"mouse_name"`
}

// Engine caches the fitted UMAP model keyed on the catalog matrix
// fingerprint. Fitting is expensive next to ranking, so a hit returns
// instantly and only one fit runs at a time per fingerprint.
type Engine struct {
	cat   *catalog.Catalog
	store *vectorstore.Store
	cfg   Config
	log   zerolog.Logger

	mu        sync.Mutex
	fitted    *Fitted
	fittedKey string
}

// NewEngine creates a projection engine over the store.
func NewEngine(cat *catalog.Catalog, store *vectorstore.Store, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{cat: cat, store: store, cfg: cfg, log: log}
}

// Points returns the 2D projection of the whole catalog, fitting on first
// use or after the underlying matrix changed.
func (e *Engine) Points(ctx context.Context) ([]Point, error) {
	fitted, err := e.fit(ctx)
	if err != nil {
		return nil, err
	}
	if fitted == nil {
		return nil, nil
	}

	coords := fitted.Coords()
	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{X: c[0], Y: c[1], Index: i, Name: e.cat.Mice[i].Name}
	}
	return points, nil
}

// QueryPoint places a query vector into the fitted layout. The fit is
// never redone for a query; different users' queries land in the same
// stable catalog layout.
func (e *Engine) QueryPoint(ctx context.Context, query []float32, label string) (*Point, error) {
	fitted, err := e.fit(ctx)
	if err != nil {
		return nil, err
	}
	if fitted == nil {
		return nil, nil
	}

	x, y := fitted.Transform(query)
	return &Point{X: x, Y: y, Index: -1, Name: label}, nil
}

func (e *Engine) fit(ctx context.Context) (*Fitted, error) {
	matrix, meta, err := e.store.Matrix(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fitted != nil && e.fittedKey == meta.Fingerprint {
		return e.fitted, nil
	}

	e.log.Info().Int("count", len(matrix)).Msg("fitting 2D projection of catalog embeddings")
	e.fitted = Fit(matrix, e.cfg)
	e.fittedKey = meta.Fingerprint
	return e.fitted, nil
}
