// Package prefs defines the structured preference record the conversation
// layer fills in and the recommendation core consumes. Every field is
// optional; the record may be arbitrarily incomplete at any point in the
// conversation.
package prefs

import (
	"fmt"
	"strings"
)

// Grip types the conversation layer may extract.
const (
	GripPalm      = "palm"
	GripClaw      = "claw"
	GripFingertip = "fingertip"
	GripHybrid    = "hybrid"
)

// Game genres the conversation layer may extract.
const (
	GenreFPS          = "fps"
	GenreMOBA         = "moba"
	GenreMMO          = "mmo"
	GenreBattleRoyale = "battle_royale"
	GenreGeneral      = "general"
)

// Weight preference buckets.
const (
	WeightLight  = "light"
	WeightMedium = "medium"
	WeightHeavy  = "heavy"
)

var (
	validGrips   = map[string]bool{GripPalm: true, GripClaw: true, GripFingertip: true, GripHybrid: true}
	validGenres  = map[string]bool{GenreFPS: true, GenreMOBA: true, GenreMMO: true, GenreBattleRoyale: true, GenreGeneral: true}
	validWeights = map[string]bool{WeightLight: true, WeightMedium: true, WeightHeavy: true}
	validSens    = map[string]bool{"low": true, "medium": true, "high": true}
	validHands   = map[string]bool{"left": true, "right": true, "ambidextrous": true}
)

// UserPreferences is the partial record delivered by the conversation
// layer. String fields are empty when unknown; numeric and boolean fields
// use pointers so "unknown" and zero/false stay distinguishable.
type UserPreferences struct {
	HandSize           string   `json:"hand_size,omitempty"`
	GripType           string   `json:"grip_type,omitempty"`
	Genre              string   `json:"genre,omitempty"`
	Sensitivity        string   `json:"sensitivity,omitempty"`
	BudgetMin          *float64 `json:"budget_min,omitempty"`
	BudgetMax          *float64 `json:"budget_max,omitempty"`
	WeightPreference   string   `json:"weight_preference,omitempty"`
	WirelessPreference *bool    `json:"wireless_preference,omitempty"`
	Handedness         string   `json:"handedness,omitempty"`
	AdditionalNotes    string   `json:"additional_notes,omitempty"`
}

// ValidationError reports a preference value outside the documented enums.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("preferences: %s: %s", e.Field, e.Reason)
}

// Validate checks enum fields and budget bounds. Free-text fields
// (hand size, notes) are accepted as-is.
func (p *UserPreferences) Validate() error {
	if p.GripType != "" && !validGrips[strings.ToLower(p.GripType)] {
		return &ValidationError{Field: "grip_type", Reason: fmt.Sprintf("%q is not one of palm/claw/fingertip/hybrid", p.GripType)}
	}
	if p.Genre != "" && !validGenres[strings.ToLower(p.Genre)] {
		return &ValidationError{Field: "genre", Reason: fmt.Sprintf("%q is not one of fps/moba/mmo/battle_royale/general", p.Genre)}
	}
	if p.WeightPreference != "" && !validWeights[strings.ToLower(p.WeightPreference)] {
		return &ValidationError{Field: "weight_preference", Reason: fmt.Sprintf("%q is not one of light/medium/heavy", p.WeightPreference)}
	}
	if p.Sensitivity != "" && !validSens[strings.ToLower(p.Sensitivity)] {
		return &ValidationError{Field: "sensitivity", Reason: fmt.Sprintf("%q is not one of low/medium/high", p.Sensitivity)}
	}
	if p.Handedness != "" && !validHands[strings.ToLower(p.Handedness)] {
		return &ValidationError{Field: "handedness", Reason: fmt.Sprintf("%q is not one of left/right/ambidextrous", p.Handedness)}
	}
	if p.BudgetMin != nil && *p.BudgetMin < 0 {
		return &ValidationError{Field: "budget_min", Reason: "must be non-negative"}
	}
	if p.BudgetMax != nil && *p.BudgetMax < 0 {
		return &ValidationError{Field: "budget_max", Reason: "must be non-negative"}
	}
	if p.BudgetMin != nil && p.BudgetMax != nil && *p.BudgetMin > *p.BudgetMax {
		return &ValidationError{Field: "budget_min", Reason: "exceeds budget_max"}
	}
	return nil
}

// Merge fills unset fields of p from extracted. Already-collected values
// are never overridden; the conversation contract forbids it.
func (p *UserPreferences) Merge(extracted *UserPreferences) {
	if extracted == nil {
		return
	}
	if p.HandSize == "" {
		p.HandSize = extracted.HandSize
	}
	if p.GripType == "" {
		p.GripType = extracted.GripType
	}
	if p.Genre == "" {
		p.Genre = extracted.Genre
	}
	if p.Sensitivity == "" {
		p.Sensitivity = extracted.Sensitivity
	}
	if p.BudgetMin == nil {
		p.BudgetMin = extracted.BudgetMin
	}
	if p.BudgetMax == nil {
		p.BudgetMax = extracted.BudgetMax
	}
	if p.WeightPreference == "" {
		p.WeightPreference = extracted.WeightPreference
	}
	if p.WirelessPreference == nil {
		p.WirelessPreference = extracted.WirelessPreference
	}
	if p.Handedness == "" {
		p.Handedness = extracted.Handedness
	}
	if p.AdditionalNotes == "" {
		p.AdditionalNotes = extracted.AdditionalNotes
	}
}

// Collected reports whether the core slots have all been filled. Budget
// counts as collected when either bound is known.
func (p *UserPreferences) Collected() bool {
	return p.HandSize != "" &&
		p.GripType != "" &&
		p.Genre != "" &&
		p.Sensitivity != "" &&
		(p.BudgetMin != nil || p.BudgetMax != nil) &&
		p.WeightPreference != "" &&
		p.WirelessPreference != nil
}

// Missing returns the unfilled core slots in question order.
func (p *UserPreferences) Missing() []string {
	var missing []string
	if p.HandSize == "" {
		missing = append(missing, "hand_size")
	}
	if p.GripType == "" {
		missing = append(missing, "grip_type")
	}
	if p.Genre == "" {
		missing = append(missing, "genre")
	}
	if p.Sensitivity == "" {
		missing = append(missing, "sensitivity")
	}
	if p.BudgetMin == nil && p.BudgetMax == nil {
		missing = append(missing, "budget")
	}
	if p.WeightPreference == "" {
		missing = append(missing, "weight_preference")
	}
	if p.WirelessPreference == nil {
		missing = append(missing, "wireless_preference")
	}
	return missing
}
