package recommend

import (
	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
)

// hardFilter excludes candidates outright, as opposed to soft preferences
// that only shape the similarity score.
type hardFilter struct {
	name string
	keep func(*catalog.MouseSpec) bool
}

// activeFilters returns the hard filters implied by p, in application
// order: budget first, then hand compatibility, then wireless. Relaxation
// walks the same list backwards, so the wireless preference is the first
// constraint given up and the budget the last.
func activeFilters(p *prefs.UserPreferences) []hardFilter {
	var filters []hardFilter

	if p.BudgetMin != nil || p.BudgetMax != nil {
		min, max := p.BudgetMin, p.BudgetMax
		filters = append(filters, hardFilter{
			name: "budget",
			keep: func(m *catalog.MouseSpec) bool {
				if m.PriceUSD == nil {
					// Unknown price never violates a budget bound.
					return true
				}
				if min != nil && *m.PriceUSD < *min {
					return false
				}
				if max != nil && *m.PriceUSD > *max {
					return false
				}
				return true
			},
		})
	}

	if p.Handedness != "" && p.Handedness != "ambidextrous" {
		hand := p.Handedness
		filters = append(filters, hardFilter{
			name: "hand_compatibility",
			keep: func(m *catalog.MouseSpec) bool {
				switch m.HandCompatibility {
				case "", "ambidextrous":
					return true
				default:
					return m.HandCompatibility == hand
				}
			},
		})
	}

	if p.WirelessPreference != nil {
		want := *p.WirelessPreference
		filters = append(filters, hardFilter{
			name: "wireless",
			keep: func(m *catalog.MouseSpec) bool {
				if m.Wireless == nil {
					return true
				}
				return *m.Wireless == want
			},
		})
	}

	return filters
}

// candidates returns the catalog indices that survive the hard filters,
// plus the names of any filters that had to be relaxed. When filtering
// leaves fewer than need candidates, filters are dropped one at a time,
// most recently applied first, until enough candidates remain or every
// filter is gone. With a non-empty catalog the result is never empty:
// dropping every filter leaves the whole catalog.
func candidates(cat *catalog.Catalog, p *prefs.UserPreferences, need int) (indices []int, relaxed []string) {
	filters := activeFilters(p)
	if need < 1 {
		need = 1
	}

	for drop := 0; drop <= len(filters); drop++ {
		applied := filters[:len(filters)-drop]

		indices = indices[:0]
		for i := range cat.Mice {
			ok := true
			for _, f := range applied {
				if !f.keep(&cat.Mice[i]) {
					ok = false
					break
				}
			}
			if ok {
				indices = append(indices, i)
			}
		}

		if len(indices) >= need || drop == len(filters) {
			for _, f := range filters[len(filters)-drop:] {
				relaxed = append(relaxed, f.name)
			}
			return indices, relaxed
		}
	}

	return nil, nil
}
