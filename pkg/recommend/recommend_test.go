package recommend

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/encoder"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
	"github.com/brandonyuanCS/periph4all/pkg/vectorstore"
)

func f64(v float64) *float64 { return &v }
func pbool(v bool) *bool     { return &v }

func newTestRecommender(t *testing.T, csv string) *Recommender {
	t.Helper()
	cat, err := catalog.Read(strings.NewReader(csv))
	require.NoError(t, err)
	emb := encoder.NewHashEmbedder(128)
	store := vectorstore.New(cat, emb, t.TempDir(), zerolog.Nop())
	return New(cat, store, emb, zerolog.Nop())
}

const threeMiceCSV = `name,brand,price,weight,wireless
Alpha,Acme,50,60,false
Bravo,Acme,120,90,true
Charlie,Acme,70,55,true
`

// The worked scenario: budget_max 100 excludes Bravo, the wireless filter
// excludes Alpha, leaving only Charlie. With k=2 the wireless filter is
// relaxed, yielding {Charlie, Alpha}.
func TestRecommend_FilterRelaxationScenario(t *testing.T) {
	r := newTestRecommender(t, threeMiceCSV)
	p := &prefs.UserPreferences{
		BudgetMax:          f64(100),
		WirelessPreference: pbool(true),
		WeightPreference:   "light",
	}

	res, err := r.Recommend(context.Background(), p, 2, false)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 2)

	names := []string{res.Recommendations[0].Mouse.Name, res.Recommendations[1].Mouse.Name}
	assert.ElementsMatch(t, []string{"Charlie", "Alpha"}, names)
	assert.Equal(t, []string{"wireless"}, res.RelaxedFilters)

	// Bravo exceeds the budget and must never appear.
	for _, rec := range res.Recommendations {
		assert.NotEqual(t, "Bravo", rec.Mouse.Name)
	}
}

func TestRecommend_BudgetKeepsUnknownPrice(t *testing.T) {
	csv := `name,brand,price,weight
Priced,Acme,250,70
Unpriced,Acme,,70
`
	r := newTestRecommender(t, csv)
	p := &prefs.UserPreferences{BudgetMax: f64(100)}

	res, err := r.Recommend(context.Background(), p, 1, false)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "Unpriced", res.Recommendations[0].Mouse.Name)
	assert.Empty(t, res.RelaxedFilters)
}

func TestRecommend_SortedWithPriceTieBreak(t *testing.T) {
	// Identical rows except name and price embed to near-identical
	// vectors; the cheaper one must rank first on the tie.
	csv := `name,brand,price,weight,wireless,genre
Twin,Acme,90,60,true,fps
Twin,Acme,40,60,true,fps
`
	r := newTestRecommender(t, csv)

	res, err := r.Recommend(context.Background(), &prefs.UserPreferences{Genre: "fps"}, 2, false)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 2)

	assert.GreaterOrEqual(t, res.Recommendations[0].Score, res.Recommendations[1].Score)
	require.NotNil(t, res.Recommendations[0].Mouse.PriceUSD)
	assert.Equal(t, 40.0, *res.Recommendations[0].Mouse.PriceUSD)
}

func TestRecommend_ResultCount(t *testing.T) {
	r := newTestRecommender(t, threeMiceCSV)
	ctx := context.Background()

	for _, k := range []int{1, 2, 3, 10} {
		res, err := r.Recommend(ctx, &prefs.UserPreferences{}, k, false)
		require.NoError(t, err)
		want := k
		if want > 3 {
			want = 3
		}
		assert.Len(t, res.Recommendations, want, "k=%d", k)
	}
}

func TestRecommend_InvalidTopK(t *testing.T) {
	r := newTestRecommender(t, threeMiceCSV)
	_, err := r.Recommend(context.Background(), &prefs.UserPreferences{}, 0, false)
	assert.ErrorIs(t, err, ErrInvalidTopK)
	_, err = r.Recommend(context.Background(), &prefs.UserPreferences{}, -3, false)
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestRecommend_InvalidPreferences(t *testing.T) {
	r := newTestRecommender(t, threeMiceCSV)
	_, err := r.Recommend(context.Background(), &prefs.UserPreferences{GripType: "tentacle"}, 3, false)
	var verr *prefs.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRecommend_EmptyCatalog(t *testing.T) {
	r := newTestRecommender(t, "name,brand\n")
	res, err := r.Recommend(context.Background(), &prefs.UserPreferences{}, 3, false)
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
}

func TestRecommend_AllFiltersRelaxedBeforeEmptyResult(t *testing.T) {
	// Every hard filter contradicts the catalog; the call must still
	// return results rather than an empty set.
	csv := `name,brand,price,weight,wireless,hand_compatibility
Only,Acme,500,100,false,right
`
	r := newTestRecommender(t, csv)
	p := &prefs.UserPreferences{
		BudgetMax:          f64(50),
		WirelessPreference: pbool(true),
		Handedness:         "left",
	}

	res, err := r.Recommend(context.Background(), p, 1, false)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	// Relaxed most-specific first: wireless, then hand, then budget.
	assert.Equal(t, []string{"wireless", "hand_compatibility", "budget"}, res.RelaxedFilters)
}

func TestRecommend_HandCompatibilityFilter(t *testing.T) {
	csv := `name,brand,hand_compatibility
Righty,Acme,right
Lefty,Acme,left
Ambi,Acme,ambidextrous
Unknown,Acme,
`
	r := newTestRecommender(t, csv)
	p := &prefs.UserPreferences{Handedness: "left"}

	res, err := r.Recommend(context.Background(), p, 3, false)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 3)
	assert.Empty(t, res.RelaxedFilters)
	for _, rec := range res.Recommendations {
		assert.NotEqual(t, "Righty", rec.Mouse.Name)
	}
}

func TestRecommend_Reasoning(t *testing.T) {
	r := newTestRecommender(t, threeMiceCSV)
	p := &prefs.UserPreferences{WeightPreference: "light", WirelessPreference: pbool(true)}

	res, err := r.Recommend(context.Background(), p, 1, true)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	assert.NotEmpty(t, res.Recommendations[0].Reasoning)
}
