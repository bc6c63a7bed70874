package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
)

func TestExplain_AlignedAttributes(t *testing.T) {
	m := &catalog.MouseSpec{
		Name:              "Charlie",
		WeightGrams:       f64(55),
		Wireless:          pbool(true),
		PriceUSD:          f64(70),
		GripCompatibility: []string{"claw", "fingertip"},
		Genre:             "fps",
	}
	p := &prefs.UserPreferences{
		GripType:           "claw",
		WeightPreference:   "light",
		WirelessPreference: pbool(true),
		Genre:              "fps",
		BudgetMax:          f64(100),
	}

	text := Explain(p, m, 0.87)
	assert.Contains(t, text, "Compatible with claw grip")
	assert.Contains(t, text, "Matches your light weight preference (55g)")
	assert.Contains(t, text, "Matches your wireless preference")
	assert.Contains(t, text, "Compatibility score: 87%")
	// Capped at three attribute clauses; the later alignments are dropped.
	assert.NotContains(t, text, "Fits your budget")
}

func TestExplain_NoAlignment(t *testing.T) {
	m := &catalog.MouseSpec{Name: "Mystery"}
	text := Explain(&prefs.UserPreferences{WeightPreference: "heavy"}, m, 0.42)
	assert.Contains(t, text, "Good match based on your overall preferences")
	assert.Contains(t, text, "Compatibility score: 42%")
}

func TestExplain_NegativeScoreClamped(t *testing.T) {
	text := Explain(&prefs.UserPreferences{}, &catalog.MouseSpec{}, -0.3)
	assert.Contains(t, text, "Compatibility score: 0%")
}

func TestExplain_WeightBucketsAgreeWithEncoder(t *testing.T) {
	tests := []struct {
		pref  string
		grams float64
		match bool
	}{
		{"light", 69, true},
		{"light", 70, false},
		{"medium", 70, true},
		{"medium", 90, true},
		{"heavy", 90, false},
		{"heavy", 91, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.match, weightMatches(tt.pref, tt.grams), "%s/%g", tt.pref, tt.grams)
	}
}
