// Package recommend ranks catalog mice against a user preference record:
// encode preferences to a query vector, hard-filter the catalog, score the
// survivors by cosine similarity and return the top K with reasoning.
package recommend

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/encoder"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
	"github.com/brandonyuanCS/periph4all/pkg/similarity"
	"github.com/brandonyuanCS/periph4all/pkg/vectorstore"
)

// ErrInvalidTopK reports a non-positive k. Input error, not retried.
var ErrInvalidTopK = errors.New("recommend: top k must be positive")

// DefaultTopK is the number of recommendations returned when the caller
// does not ask for a specific count.
const DefaultTopK = 3

// Recommendation is one ranked result.
type Recommendation struct {
	Index     int
	Mouse     *catalog.MouseSpec
	Score     float32
	Reasoning string
}

// Relaxation notes which hard filters were dropped to keep the candidate
// set non-empty, so callers can surface it to the user.
type Result struct {
	Recommendations []Recommendation
	RelaxedFilters  []string
}

// Recommender wires the catalog, its vector store and the embedder.
type Recommender struct {
	cat     *catalog.Catalog
	store   *vectorstore.Store
	emb     encoder.Embedder
	log     zerolog.Logger
	phraser Phraser // optional, template reasoning without it
}

// New creates a Recommender. All inputs are immutable after startup, so a
// single instance is safe for concurrent requests.
func New(cat *catalog.Catalog, store *vectorstore.Store, emb encoder.Embedder, log zerolog.Logger) *Recommender {
	return &Recommender{cat: cat, store: store, emb: emb, log: log}
}

// QueryVector encodes a preference record into the shared vector space.
func (r *Recommender) QueryVector(ctx context.Context, p *prefs.UserPreferences) ([]float32, error) {
	return r.emb.Embed(ctx, encoder.PreferencesText(p))
}

// Recommend returns the top k catalog entries for p, each with its
// similarity score and, when requested, a reasoning string. An empty
// catalog yields an empty result; that is the only legitimate empty case.
func (r *Recommender) Recommend(ctx context.Context, p *prefs.UserPreferences, k int, includeReasoning bool) (*Result, error) {
	if k <= 0 {
		return nil, ErrInvalidTopK
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if r.cat.Len() == 0 {
		return &Result{}, nil
	}

	query, err := r.QueryVector(ctx, p)
	if err != nil {
		return nil, err
	}

	matrix, _, err := r.store.Matrix(ctx)
	if err != nil {
		return nil, err
	}

	need := k
	if r.cat.Len() < need {
		need = r.cat.Len()
	}
	indices, relaxed := candidates(r.cat, p, need)
	if len(relaxed) > 0 {
		r.log.Debug().Strs("relaxed", relaxed).Msg("hard filters relaxed to avoid empty result")
	}

	scored := make([]similarity.Scored, 0, len(indices))
	for _, idx := range indices {
		scored = append(scored, similarity.Scored{
			Index: idx,
			Score: similarity.Cosine(query, matrix[idx]),
		})
	}

	// Ties break by ascending price so the order is deterministic and the
	// cheaper mouse wins; unknown prices sort after known ones.
	top := similarity.TopK(scored, k, func(a, b similarity.Scored) bool {
		pa, pb := r.priceOrInf(a.Index), r.priceOrInf(b.Index)
		if pa != pb {
			return pa < pb
		}
		return a.Index < b.Index
	})

	result := &Result{RelaxedFilters: relaxed}
	for _, s := range top {
		rec := Recommendation{
			Index: s.Index,
			Mouse: &r.cat.Mice[s.Index],
			Score: s.Score,
		}
		if includeReasoning {
			rec.Reasoning = r.explain(ctx, p, rec.Mouse, rec.Score)
		}
		result.Recommendations = append(result.Recommendations, rec)
	}

	return result, nil
}

func (r *Recommender) priceOrInf(idx int) float64 {
	if p := r.cat.Mice[idx].PriceUSD; p != nil {
		return *p
	}
	return math.Inf(1)
}
