package engine

import "strconv"

// Facet names one independent ticker filter dimension.
type Facet string

const (
	FacetGrade   Facet = "grade"
	FacetRefine  Facet = "refine"
	FacetEnchant Facet = "enchant"
	FacetCard    Facet = "card"
)

// TickerFilters holds the four facet sets applied to the ticker/log view.
// An empty set means "no constraint on this facet", not "match nothing".
type TickerFilters struct {
	Grades   map[int]bool
	Refines  map[int]bool
	Enchants map[string]bool
	Cards    map[string]bool
}

// NewTickerFilters returns an empty (match-everything) filter set.
func NewTickerFilters() *TickerFilters {
	return &TickerFilters{
		Grades:   make(map[int]bool),
		Refines:  make(map[int]bool),
		Enchants: make(map[string]bool),
		Cards:    make(map[string]bool),
	}
}

// Clone deep-copies the filter set.
func (f *TickerFilters) Clone() *TickerFilters {
	c := NewTickerFilters()
	for k := range f.Grades {
		c.Grades[k] = true
	}
	for k := range f.Refines {
		c.Refines[k] = true
	}
	for k := range f.Enchants {
		c.Enchants[k] = true
	}
	for k := range f.Cards {
		c.Cards[k] = true
	}
	return c
}

// IsEmpty reports whether every facet is unconstrained.
func (f *TickerFilters) IsEmpty() bool {
	return len(f.Grades) == 0 && len(f.Refines) == 0 &&
		len(f.Enchants) == 0 && len(f.Cards) == 0
}

// Toggle adds the value to its facet set, or removes it when already
// present. Numeric facets silently ignore unparseable values.
func (f *TickerFilters) Toggle(facet Facet, value string) {
	switch facet {
	case FacetGrade:
		n, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		toggleInt(f.Grades, n)
	case FacetRefine:
		n, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		toggleInt(f.Refines, n)
	case FacetEnchant:
		toggleString(f.Enchants, value)
	case FacetCard:
		toggleString(f.Cards, value)
	}
}

// SetSeries replaces the grade and refine facets with the exact (grade,
// refine) of one series. Enchant and card facets are untouched.
func (f *TickerFilters) SetSeries(key SeriesKey) {
	f.Grades = map[int]bool{key.Grade: true}
	f.Refines = map[int]bool{key.Refine: true}
}

// ClearSeries drops the grade and refine facets.
func (f *TickerFilters) ClearSeries() {
	f.Grades = make(map[int]bool)
	f.Refines = make(map[int]bool)
}

// MatchesSeriesExactly reports whether the grade/refine facets are exactly
// this one series, the condition under which a repeated row click toggles
// the series filter off.
func (f *TickerFilters) MatchesSeriesExactly(key SeriesKey) bool {
	return len(f.Grades) == 1 && f.Grades[key.Grade] &&
		len(f.Refines) == 1 && f.Refines[key.Refine]
}

// Apply filters records by all four facets ANDed together:
//   - grades/refines: membership, or empty set;
//   - enchants: every filter value must appear among the record's non-empty
//     card2..card4 (containment, not mere overlap), or empty set;
//   - cards: membership of the primary card (card1), or empty set.
func (f *TickerFilters) Apply(records []PriceRecord) []PriceRecord {
	if f.IsEmpty() {
		return records
	}

	out := make([]PriceRecord, 0, len(records))
	for _, r := range records {
		if len(f.Grades) > 0 && !f.Grades[r.Grade] {
			continue
		}
		if len(f.Refines) > 0 && !f.Refines[r.Refine] {
			continue
		}
		if len(f.Enchants) > 0 && !containsAllEnchants(r, f.Enchants) {
			continue
		}
		if len(f.Cards) > 0 && !f.Cards[r.Card1] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsAllEnchants(r PriceRecord, enchants map[string]bool) bool {
	for e := range enchants {
		if e != r.Card2 && e != r.Card3 && e != r.Card4 {
			return false
		}
	}
	return true
}

func toggleInt(set map[int]bool, v int) {
	if set[v] {
		delete(set, v)
	} else {
		set[v] = true
	}
}

func toggleString(set map[string]bool, v string) {
	if set[v] {
		delete(set, v)
	} else {
		set[v] = true
	}
}
