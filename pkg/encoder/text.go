// Package encoder turns structured records into canonical descriptive text
// and text into fixed-length vectors. The text side is pure string
// templating; the vector side delegates to an external embedding model.
package encoder

import (
	"fmt"
	"strings"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
)

// Weight buckets inject numeric proximity into the text embedding: nearby
// weights share a bucket word and therefore score closer. The thresholds
// are part of the scoring contract; changing them invalidates any cached
// matrix built with the old text.
const (
	weightLightMaxGrams  = 70.0
	weightMediumMaxGrams = 90.0
)

// WeightBucket maps grams to the categorical label used in generated text
// and in reasoning.
func WeightBucket(grams float64) string {
	switch {
	case grams < weightLightMaxGrams:
		return "lightweight"
	case grams <= weightMediumMaxGrams:
		return "medium weight"
	default:
		return "heavy"
	}
}

func dpiBucket(dpi int) string {
	switch {
	case dpi >= 20000:
		return "very high DPI sensor"
	case dpi >= 10000:
		return "high DPI sensor"
	default:
		return "standard DPI sensor"
	}
}

func sizeBucket(lengthMM float64) string {
	switch {
	case lengthMM < 115:
		return "small"
	case lengthMM <= 125:
		return "medium size"
	default:
		return "large"
	}
}

// MouseText renders a catalog entry as natural-language clauses. Absent
// fields are omitted entirely; presence checks are explicit so an unknown
// value never leaks a zero into the text.
func MouseText(m *catalog.MouseSpec) string {
	var parts []string

	if m.Name != "" {
		parts = append(parts, "Mouse: "+m.Name)
	}
	if m.Brand != "" {
		parts = append(parts, "Brand: "+m.Brand)
	}
	if m.WeightGrams != nil {
		parts = append(parts, fmt.Sprintf("Weight: %gg (%s)", *m.WeightGrams, WeightBucket(*m.WeightGrams)))
	}
	if m.LengthMM != nil {
		parts = append(parts, fmt.Sprintf("Length: %gmm (%s)", *m.LengthMM, sizeBucket(*m.LengthMM)))
	}
	if m.Shape != "" {
		parts = append(parts, "Shape: "+m.Shape)
	}
	if m.Hump != "" {
		parts = append(parts, "Hump: "+m.Hump)
	}
	if m.MaxDPI != nil {
		parts = append(parts, fmt.Sprintf("Max DPI: %d (%s)", *m.MaxDPI, dpiBucket(*m.MaxDPI)))
	}
	if m.PollingRateHz != nil {
		parts = append(parts, fmt.Sprintf("Polling rate: %dHz", *m.PollingRateHz))
	}
	if m.Sensor != "" {
		parts = append(parts, "Sensor: "+m.Sensor)
	}
	if m.Switches != "" {
		parts = append(parts, "Switches: "+m.Switches)
	}
	if m.Wireless != nil {
		if *m.Wireless {
			parts = append(parts, "Connection: Wireless")
		} else {
			parts = append(parts, "Connection: Wired")
		}
	}
	if m.HandCompatibility != "" {
		parts = append(parts, "Hand: "+m.HandCompatibility)
	}
	if len(m.GripCompatibility) > 0 {
		parts = append(parts, "Grip types: "+strings.Join(m.GripCompatibility, ", "))
	}
	if m.SideButtons != nil {
		parts = append(parts, fmt.Sprintf("Side buttons: %d", *m.SideButtons))
	}
	if m.Genre != "" {
		parts = append(parts, "Best for: "+m.Genre)
	}

	return strings.Join(parts, ". ")
}

// PreferencesText renders a preference record as natural-language clauses.
// An entirely empty record still produces a usable generic query.
func PreferencesText(p *prefs.UserPreferences) string {
	var parts []string

	if p.HandSize != "" {
		parts = append(parts, "Hand size: "+p.HandSize)
	}
	if p.GripType != "" {
		parts = append(parts, "Grip type: "+p.GripType)
	}
	if p.Genre != "" {
		parts = append(parts, "Gaming genre: "+p.Genre)
	}
	if p.Sensitivity != "" {
		parts = append(parts, "Sensitivity: "+p.Sensitivity)
	}
	if p.WeightPreference != "" {
		parts = append(parts, "Weight preference: "+p.WeightPreference)
	}
	if p.WirelessPreference != nil {
		if *p.WirelessPreference {
			parts = append(parts, "Wireless preferred")
		} else {
			parts = append(parts, "Wired preferred")
		}
	}
	if p.Handedness != "" {
		parts = append(parts, "Handedness: "+p.Handedness)
	}
	if p.BudgetMin != nil || p.BudgetMax != nil {
		var budget []string
		if p.BudgetMin != nil {
			budget = append(budget, fmt.Sprintf("minimum $%g", *p.BudgetMin))
		}
		if p.BudgetMax != nil {
			budget = append(budget, fmt.Sprintf("maximum $%g", *p.BudgetMax))
		}
		parts = append(parts, "Budget: "+strings.Join(budget, " to "))
	}
	if p.AdditionalNotes != "" {
		parts = append(parts, p.AdditionalNotes)
	}

	if len(parts) == 0 {
		return "General gaming mouse for all purposes"
	}
	return strings.Join(parts, ". ")
}
