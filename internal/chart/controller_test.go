package chart

import (
	"reflect"
	"testing"
	"time"

	"refine-board/internal/config"
	"refine-board/internal/engine"
	"refine-board/internal/feed"
	"refine-board/internal/store"
)

type fakeHistory struct {
	pushes   []string
	replaces []string
}

func (h *fakeHistory) Push(hash string)    { h.pushes = append(h.pushes, hash) }
func (h *fakeHistory) Replace(hash string) { h.replaces = append(h.replaces, hash) }

type fakeRenderer struct {
	renders  int
	releases int
	last     *View
}

func (r *fakeRenderer) Render(v *View) {
	r.renders++
	r.last = v
}

func (r *fakeRenderer) Release() { r.releases++ }

func chartStore() *store.Store {
	meta := &feed.Meta{
		Names: map[string]string{"sword": "Sword", "bare": "Bare"},
		Kinds: map[string]int{"sword": 9, "bare": 9},
		Yomi:  map[string]string{},
	}
	day := func(d int, h int) time.Time {
		return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC)
	}
	records := []engine.PriceRecord{
		{Time: day(1, 2), ItemID: "sword", Price: 1000, Grade: 0, Refine: 10},
		{Time: day(1, 3), ItemID: "sword", Price: 1200, Grade: 0, Refine: 10},
		{Time: day(2, 2), ItemID: "sword", Price: 900, Grade: 0, Refine: 10},
		{Time: day(2, 4), ItemID: "sword", Price: 5000, Grade: 1, Refine: 10},
		{Time: day(2, 5), ItemID: "sword", Price: 400, Grade: 0, Refine: 9},
	}
	return store.Build(meta, records, day(2, 5), config.Default())
}

func newTestController() (*Controller, *fakeHistory, *fakeRenderer) {
	h := &fakeHistory{}
	r := &fakeRenderer{}
	c := NewController(chartStore(), defKey, defGran, h, r)
	return c, h, r
}

func TestSelectItem_PushesAndResetsFilters(t *testing.T) {
	c, h, r := newTestController()
	v := c.SelectItem("sword")

	if v.Series != "0_10" || v.Granularity != engine.Granularity1d {
		t.Errorf("view series/gran = %s/%s", v.Series, v.Granularity)
	}
	if len(h.pushes) != 1 || h.pushes[0] != v.Hash {
		t.Errorf("pushes = %v", h.pushes)
	}
	if r.renders != 1 || r.releases != 0 {
		t.Errorf("renders=%d releases=%d", r.renders, r.releases)
	}
	// Filters derived from the selected series: only the 0_10 trades pass.
	if len(v.Ticker) != 3 {
		t.Errorf("ticker = %d records, want 3", len(v.Ticker))
	}
	// Newest first.
	if v.Ticker[0].Price != 900 {
		t.Errorf("ticker head = %+v", v.Ticker[0])
	}
}

func TestSelectItem_SeriesFallback(t *testing.T) {
	c, _, _ := newTestController()
	// Default series has data for sword, so no fallback.
	if v := c.SelectItem("sword"); v.Series != "0_10" {
		t.Errorf("series = %s", v.Series)
	}

	// An unknown item keeps the default and renders empty.
	v := c.SelectItem("ghost")
	if v.Series != "0_10" || len(v.Raw) != 0 || v.Summary != nil {
		t.Errorf("ghost view = %+v", v)
	}
}

func TestNavigateHash_FallsBackThroughColumnOrder(t *testing.T) {
	c, h, _ := newTestController()
	// +8 has no sword data and neither does the default after restricting to
	// it; the request falls back to the default series, which has trades.
	v := c.NavigateHash("#/item/sword/refine/8/agg/1d")
	if v.Series != "0_10" {
		t.Errorf("fallback series = %s", v.Series)
	}
	if len(h.pushes) != 0 || len(h.replaces) != 1 {
		t.Errorf("hash navigation must replace, never push: %v / %v", h.pushes, h.replaces)
	}
	if h.replaces[0] != v.Hash {
		t.Errorf("replaced hash = %q, want %q", h.replaces[0], v.Hash)
	}
}

func TestNavigateHash_InvalidHash(t *testing.T) {
	c, h, r := newTestController()
	if v := c.NavigateHash("#/nothing"); v != nil {
		t.Error("invalid hash should not produce a view")
	}
	if len(h.pushes)+len(h.replaces) != 0 || r.renders != 0 {
		t.Error("invalid hash must not touch history or the renderer")
	}
}

func TestSelectSeries_PushVersusReplace(t *testing.T) {
	c, h, _ := newTestController()
	c.SelectItem("sword")

	c.SelectSeries(engine.SeriesKey{Grade: 1, Refine: 10}, true)
	if len(h.pushes) != 2 {
		t.Errorf("user series change should push: %v", h.pushes)
	}

	c.SelectSeries(engine.SeriesKey{Grade: 0, Refine: 9}, false)
	if len(h.pushes) != 2 || len(h.replaces) != 1 {
		t.Errorf("programmatic series change should replace: %v / %v", h.pushes, h.replaces)
	}
}

func TestSelectSeries_ExactMatchTogglesFiltersOff(t *testing.T) {
	c, h, _ := newTestController()
	c.SelectItem("sword")
	key := engine.SeriesKey{Grade: 0, Refine: 10}

	// Filters already match the selected series exactly; re-selecting it
	// clears the series facets and widens the ticker to all trades.
	v := c.SelectSeries(key, true)
	if v.Series != "0_10" {
		t.Errorf("series changed on toggle-off: %s", v.Series)
	}
	if len(v.Ticker) != 5 {
		t.Errorf("toggle-off ticker = %d records, want all 5", len(v.Ticker))
	}
	if len(h.pushes) != 1 {
		t.Errorf("toggle-off must not write history: %v", h.pushes)
	}

	// Selecting it again re-applies the exact filters.
	v = c.SelectSeries(key, true)
	if len(v.Ticker) != 3 {
		t.Errorf("re-select ticker = %d records, want 3", len(v.Ticker))
	}
}

func TestSetGranularity(t *testing.T) {
	c, h, _ := newTestController()
	c.SelectItem("sword")

	v := c.SetGranularity("3h")
	if v.Granularity != engine.Granularity3h {
		t.Errorf("granularity = %s", v.Granularity)
	}
	if len(h.pushes) != 2 {
		t.Errorf("granularity change should push: %v", h.pushes)
	}

	if v := c.SetGranularity("bogus"); v.Granularity != engine.Granularity1d {
		t.Errorf("bogus granularity should fall back: %s", v.Granularity)
	}
}

func TestToggleFilter_NoHashWrites(t *testing.T) {
	c, h, _ := newTestController()
	c.SelectItem("sword")
	before := len(h.pushes) + len(h.replaces)

	v := c.ToggleFilter(engine.FacetRefine, "9")
	if len(h.pushes)+len(h.replaces) != before {
		t.Error("filter toggles must not touch the hash")
	}
	// Series facets were 0_10 exactly; adding refine 9 widens that facet.
	if len(v.Ticker) != 4 {
		t.Errorf("ticker = %d records, want 4", len(v.Ticker))
	}
}

func TestRender_IdenticalStateIdenticalView(t *testing.T) {
	c, _, r := newTestController()
	c.NavigateHash("#/item/sword/refine/10/agg/1d")
	first := r.last

	c.NavigateHash("#/item/sword/refine/10/agg/1d")
	second := r.last

	if !reflect.DeepEqual(first, second) {
		t.Error("identical state should render an identical view")
	}
	if r.releases != 1 {
		t.Errorf("previous view must be released exactly once, got %d", r.releases)
	}
}

func TestReset(t *testing.T) {
	c, _, r := newTestController()
	c.SelectItem("sword")
	c.Reset()
	if r.releases != 1 {
		t.Errorf("reset should release the current view, releases=%d", r.releases)
	}
	st := c.State()
	if st.ItemID != "" || st.Series != defKey || !st.Filters.IsEmpty() {
		t.Errorf("reset state = %+v", st)
	}
	// Reset is idempotent.
	c.Reset()
	if r.releases != 1 {
		t.Error("double reset must not release twice")
	}
}

func TestView_DetailMatrix(t *testing.T) {
	c, _, _ := newTestController()
	v := c.SelectItem("sword")

	if len(v.Detail) != 2 {
		t.Fatalf("detail rows = %d, want 2", len(v.Detail))
	}
	// Newest day first.
	if v.Detail[0].Date != "2026-03-02" || v.Detail[1].Date != "2026-03-01" {
		t.Errorf("detail dates = %s, %s", v.Detail[0].Date, v.Detail[1].Date)
	}
	row := v.Detail[0]
	if len(row.Cells) != len(engine.SeriesColumns) {
		t.Fatalf("cells = %d", len(row.Cells))
	}
	// Column order: +7..+10 then starred. +9 is index 2, +10 index 3.
	if row.Cells[2].Stats.Price != 400 || row.Cells[3].Stats.Price != 900 {
		t.Errorf("day-2 cells = %+v, %+v", row.Cells[2].Stats, row.Cells[3].Stats)
	}
	if row.Cells[2].Class != engine.MatrixMin {
		t.Errorf("row minimum class = %q", row.Cells[2].Class)
	}
	// Column without data that day.
	if row.Cells[0].Stats.DaysAgo != -1 {
		t.Errorf("empty cell = %+v", row.Cells[0].Stats)
	}
}
