package chart

import (
	"sort"
	"strconv"

	"refine-board/internal/engine"
	"refine-board/internal/store"
)

// detailDays is how many trailing trading days the detail matrix shows.
const detailDays = 7

// History receives location-hash writes. Push creates a new history entry;
// Replace rewrites the current one.
type History interface {
	Push(hash string)
	Replace(hash string)
}

// Renderer consumes Views. The controller calls Release before handing over
// a new View, so a renderer never holds two views at once.
type Renderer interface {
	Render(v *View)
	Release()
}

// State is the chart selection. Only the Controller mutates it.
type State struct {
	ItemID      string
	Series      engine.SeriesKey
	Granularity engine.Granularity
	Filters     *engine.TickerFilters
}

// DetailCell is one (day, series) cell of the detail matrix.
type DetailCell struct {
	Key   engine.SeriesKey   `json:"-"`
	Label string             `json:"label"`
	Stats engine.CellStats   `json:"stats"`
	Class engine.MatrixClass `json:"class,omitempty"`
}

// DetailRow is one trailing day of the detail matrix, newest first.
type DetailRow struct {
	Date  string       `json:"date"`
	Cells []DetailCell `json:"cells"`
}

// View is the plain-data snapshot a Renderer draws from. It carries no
// references back into the controller; identical state produces an
// identical View.
type View struct {
	ItemID      string             `json:"item_id"`
	Series      string             `json:"series"`
	SeriesLabel string             `json:"series_label"`
	Granularity engine.Granularity `json:"granularity"`
	Hash        string             `json:"hash"`

	Raw        []engine.Bucket            `json:"raw"`
	Aggregated []engine.Bucket            `json:"aggregated"`
	AllSeries  map[string][]engine.Bucket `json:"all_series"`

	Ticker     []engine.PriceRecord `json:"ticker"`
	Summary    *engine.Summary      `json:"summary,omitempty"`
	Detail     []DetailRow          `json:"detail"`
	FilterSets map[string][]string  `json:"filter_sets"`
}

// Controller is the chart state machine. It is not safe for concurrent use;
// callers serialize access.
type Controller struct {
	store    *store.Store
	history  History
	renderer Renderer

	defKey  engine.SeriesKey
	defGran engine.Granularity

	state    State
	rendered bool
}

// NewController creates a controller over one store snapshot.
func NewController(s *store.Store, defKey engine.SeriesKey, defGran engine.Granularity, h History, r Renderer) *Controller {
	return &Controller{
		store:    s,
		history:  h,
		renderer: r,
		defKey:   defKey,
		defGran:  defGran,
		state: State{
			Series:      defKey,
			Granularity: defGran,
			Filters:     engine.NewTickerFilters(),
		},
	}
}

// State returns a copy of the current selection.
func (c *Controller) State() State {
	s := c.state
	s.Filters = c.state.Filters.Clone()
	return s
}

// SelectItem switches the displayed item: the series falls back along the
// default chain, filters reset to exactly the chosen series, granularity is
// kept. Pushes a new history entry.
func (c *Controller) SelectItem(itemID string) *View {
	c.state.ItemID = itemID
	c.state.Series = c.resolveSeries(itemID, c.defKey)
	c.state.Filters = engine.NewTickerFilters()
	c.state.Filters.SetSeries(c.state.Series)

	v := c.render()
	c.history.Push(v.Hash)
	return v
}

// SelectSeries changes the highlighted series. When the user re-selects the
// series the filters already match exactly, the series facets toggle off
// instead, leaving the chart selection and the hash unchanged. User-initiated
// changes push history; programmatic ones replace.
func (c *Controller) SelectSeries(key engine.SeriesKey, userInitiated bool) *View {
	if userInitiated && c.state.Series == key && c.state.Filters.MatchesSeriesExactly(key) {
		c.state.Filters.ClearSeries()
		return c.render()
	}

	c.state.Series = key
	c.state.Filters.SetSeries(key)

	v := c.render()
	if userInitiated {
		c.history.Push(v.Hash)
	} else {
		c.history.Replace(v.Hash)
	}
	return v
}

// SetGranularity switches the aggregated chart width and pushes history.
// Unknown values fall back to the default.
func (c *Controller) SetGranularity(g string) *View {
	c.state.Granularity = engine.NormalizeGranularity(g, c.defGran)
	v := c.render()
	c.history.Push(v.Hash)
	return v
}

// ToggleFilter flips one facet value. Filters are display-only state and
// never touch the hash.
func (c *Controller) ToggleFilter(facet engine.Facet, value string) *View {
	c.state.Filters.Toggle(facet, value)
	return c.render()
}

// NavigateHash applies a hash the user arrived at (load, back/forward).
// It always replaces, never pushes, so history stays linear.
func (c *Controller) NavigateHash(hash string) *View {
	itemID, key, gran, ok := ParseHash(hash, c.defKey, c.defGran)
	if !ok {
		return nil
	}

	c.state.ItemID = itemID
	c.state.Series = c.resolveSeries(itemID, key)
	c.state.Granularity = gran
	c.state.Filters = engine.NewTickerFilters()
	c.state.Filters.SetSeries(c.state.Series)

	v := c.render()
	c.history.Replace(v.Hash)
	return v
}

// Reset returns the controller to its pre-render state and releases the
// renderer's current view.
func (c *Controller) Reset() {
	if c.rendered {
		c.renderer.Release()
		c.rendered = false
	}
	c.state = State{
		Series:      c.defKey,
		Granularity: c.defGran,
		Filters:     engine.NewTickerFilters(),
	}
}

// resolveSeries picks a series with data for the item: the requested key,
// then the default, then column order. An item with no data at all keeps the
// requested key and renders empty.
func (c *Controller) resolveSeries(itemID string, requested engine.SeriesKey) engine.SeriesKey {
	g := c.store.Group(itemID)
	if g == nil {
		return requested
	}
	if len(g.Series[requested]) > 0 {
		return requested
	}
	if len(g.Series[c.defKey]) > 0 {
		return c.defKey
	}
	for _, col := range engine.SeriesColumns {
		if len(g.Series[col.Key]) > 0 {
			return col.Key
		}
	}
	return requested
}

// render computes the View for the current state and hands it to the
// renderer, releasing the previous view first.
func (c *Controller) render() *View {
	v := c.buildView()
	if c.rendered {
		c.renderer.Release()
	}
	c.renderer.Render(v)
	c.rendered = true
	return v
}

func (c *Controller) buildView() *View {
	st := c.state
	v := &View{
		ItemID:      st.ItemID,
		Series:      st.Series.String(),
		SeriesLabel: engine.SeriesLabel(st.Series),
		Granularity: st.Granularity,
		Hash:        BuildHash(st.ItemID, st.Series, st.Granularity),
		AllSeries:   make(map[string][]engine.Bucket),
		FilterSets:  filterSets(st.Filters),
	}

	group := c.store.Group(st.ItemID)
	if group != nil {
		selected := group.Series[st.Series]
		rawAll := engine.Aggregate(selected, engine.GranularityRaw)
		aggAll := engine.Aggregate(selected, st.Granularity)
		v.Raw = rawAll[st.Series]
		v.Aggregated = aggAll[st.Series]

		for key, recs := range group.Series {
			if buckets := engine.Aggregate(recs, st.Granularity)[key]; len(buckets) > 0 {
				v.AllSeries[key.String()] = buckets
			}
		}
	}

	filtered := st.Filters.Apply(c.store.Records(st.ItemID))
	v.Ticker = newestFirst(filtered)
	if s, ok := engine.BoardSummary(filtered); ok {
		v.Summary = &s
	}
	v.Detail = c.buildDetail(group)
	return v
}

// buildDetail assembles the trailing detail matrix: one row per recent
// trading day, one cell per series column, classed against the row's
// distinct day values.
func (c *Controller) buildDetail(group *store.ItemGroup) []DetailRow {
	dates := c.store.Dates()
	if len(dates) > detailDays {
		dates = dates[len(dates)-detailDays:]
	}

	rows := make([]DetailRow, 0, len(dates))
	for i := len(dates) - 1; i >= 0; i-- {
		date := dates[i]
		row := DetailRow{Date: date, Cells: make([]DetailCell, 0, len(engine.SeriesColumns))}

		var values []int64
		for _, col := range engine.SeriesColumns {
			var stats engine.CellStats
			stats.DaysAgo = -1
			if group != nil {
				stats = engine.CellData(group.Series[col.Key], date, 0, engine.MinOf)
			}
			if stats.DaysAgo == 0 && stats.Count > 0 {
				values = append(values, stats.Price)
			}
			row.Cells = append(row.Cells, DetailCell{Key: col.Key, Label: col.Label, Stats: stats})
		}
		for j := range row.Cells {
			s := row.Cells[j].Stats
			if s.DaysAgo == 0 && s.Count > 0 {
				row.Cells[j].Class = engine.MatrixCellClass(s.Price, values)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func newestFirst(records []engine.PriceRecord) []engine.PriceRecord {
	out := make([]engine.PriceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out
}

// filterSets flattens the facet sets into sorted string lists for the
// rendering boundary.
func filterSets(f *engine.TickerFilters) map[string][]string {
	out := make(map[string][]string, 4)
	out[string(engine.FacetGrade)] = intSet(f.Grades)
	out[string(engine.FacetRefine)] = intSet(f.Refines)
	out[string(engine.FacetEnchant)] = stringSet(f.Enchants)
	out[string(engine.FacetCard)] = stringSet(f.Cards)
	return out
}

func intSet(set map[int]bool) []string {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strconv.Itoa(k)
	}
	return out
}

func stringSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
