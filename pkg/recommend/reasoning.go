package recommend

import (
	"fmt"
	"strings"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/encoder"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
)

// maxReasonClauses caps the attribute clauses per reasoning string; the
// strongest alignments come first and anything beyond three reads as
// padding.
const maxReasonClauses = 3

// Explain produces a short deterministic justification for recommending m
// given p: the declared preferences whose spec attributes align, phrased
// as clauses, followed by the match score. No model call involved, so it
// doubles as the mandatory fallback for any LLM-phrased variant.
func Explain(p *prefs.UserPreferences, m *catalog.MouseSpec, score float32) string {
	var reasons []string

	if p.GripType != "" {
		for _, grip := range m.GripCompatibility {
			if strings.EqualFold(grip, p.GripType) {
				reasons = append(reasons, fmt.Sprintf("Compatible with %s grip", strings.ToLower(p.GripType)))
				break
			}
		}
	}

	if p.WeightPreference != "" && m.WeightGrams != nil {
		if weightMatches(p.WeightPreference, *m.WeightGrams) {
			reasons = append(reasons, fmt.Sprintf("Matches your %s weight preference (%gg)",
				strings.ToLower(p.WeightPreference), *m.WeightGrams))
		}
	}

	if p.WirelessPreference != nil && m.Wireless != nil && *m.Wireless == *p.WirelessPreference {
		conn := "wired"
		if *p.WirelessPreference {
			conn = "wireless"
		}
		reasons = append(reasons, fmt.Sprintf("Matches your %s preference", conn))
	}

	if p.Genre != "" && m.Genre != "" && strings.Contains(strings.ToLower(m.Genre), strings.ToLower(p.Genre)) {
		reasons = append(reasons, fmt.Sprintf("Optimized for %s gaming", strings.ToLower(p.Genre)))
	}

	if p.BudgetMax != nil && m.PriceUSD != nil && *m.PriceUSD <= *p.BudgetMax {
		reasons = append(reasons, fmt.Sprintf("Fits your budget at $%.2f", *m.PriceUSD))
	}

	if len(reasons) > maxReasonClauses {
		reasons = reasons[:maxReasonClauses]
	}

	reasons = append(reasons, fmt.Sprintf("Compatibility score: %.0f%%", clampScore(score)*100))

	if len(reasons) == 1 {
		return "Good match based on your overall preferences. " + reasons[0]
	}
	return strings.Join(reasons, ". ")
}

// weightMatches checks a weight preference against the bucket thresholds
// used by the text encoder, so reasoning and scoring never disagree about
// what "light" means.
func weightMatches(pref string, grams float64) bool {
	switch strings.ToLower(pref) {
	case prefs.WeightLight:
		return encoder.WeightBucket(grams) == "lightweight"
	case prefs.WeightMedium:
		return encoder.WeightBucket(grams) == "medium weight"
	case prefs.WeightHeavy:
		return encoder.WeightBucket(grams) == "heavy"
	}
	return false
}

func clampScore(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
