package encoder

import (
	"context"
	"testing"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func pint(v int) *int        { return &v }
func pbool(v bool) *bool     { return &v }

func TestWeightBucket(t *testing.T) {
	assert.Equal(t, "lightweight", WeightBucket(55))
	assert.Equal(t, "lightweight", WeightBucket(69.9))
	assert.Equal(t, "medium weight", WeightBucket(70))
	assert.Equal(t, "medium weight", WeightBucket(90))
	assert.Equal(t, "heavy", WeightBucket(90.1))
}

func TestMouseText(t *testing.T) {
	m := &catalog.MouseSpec{
		Name:              "Viper Mini",
		Brand:             "Razer",
		WeightGrams:       f64(61),
		MaxDPI:            pint(8500),
		Wireless:          pbool(false),
		HandCompatibility: "ambidextrous",
		GripCompatibility: []string{"claw", "fingertip"},
		Genre:             "fps",
	}

	text := MouseText(m)
	assert.Equal(t, "Mouse: Viper Mini. Brand: Razer. Weight: 61g (lightweight). "+
		"Max DPI: 8500 (standard DPI sensor). Connection: Wired. Hand: ambidextrous. "+
		"Grip types: claw, fingertip. Best for: fps", text)
}

func TestMouseText_OmitsAbsentFields(t *testing.T) {
	m := &catalog.MouseSpec{Name: "Mystery", Brand: "Acme"}
	assert.Equal(t, "Mouse: Mystery. Brand: Acme", MouseText(m))
}

func TestPreferencesText(t *testing.T) {
	p := &prefs.UserPreferences{
		HandSize:           "19cm x 10cm",
		GripType:           "claw",
		WeightPreference:   "light",
		WirelessPreference: pbool(true),
		BudgetMin:          f64(50),
		BudgetMax:          f64(150),
	}

	text := PreferencesText(p)
	assert.Equal(t, "Hand size: 19cm x 10cm. Grip type: claw. Weight preference: light. "+
		"Wireless preferred. Budget: minimum $50 to maximum $150", text)
}

func TestPreferencesText_Empty(t *testing.T) {
	assert.Equal(t, "General gaming mouse for all purposes",
		PreferencesText(&prefs.UserPreferences{}))
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "lightweight wireless fps mouse")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "lightweight wireless fps mouse")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	// Unit length after normalization.
	var norm float32
	for _, x := range a {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestHashEmbedder_BatchMatchesSingle(t *testing.T) {
	e := NewHashEmbedder(32)
	ctx := context.Background()
	texts := []string{"wired heavy mmo", "wireless light fps"}

	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}
