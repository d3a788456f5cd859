// Package store holds the in-memory indices derived from one feed load.
// A Store is read-only after Build and replaced wholesale on every reload.
package store

import (
	"sort"
	"time"

	"refine-board/internal/config"
	"refine-board/internal/engine"
	"refine-board/internal/feed"
)

// representativeSeries is the series whose card-free day minima feed the
// overall matrix view.
var representativeSeries = engine.SeriesKey{Grade: 0, Refine: 10}

// Item is one listed item with its display metadata.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  int    `json:"kind"`
	Slot  string `json:"slot"`
	Yomi  string `json:"yomi"`
	Count int    `json:"count"`
}

// ItemGroup is one item's records split across the fixed series columns,
// restricted to card-free trades with a valid (grade, refine) combination.
type ItemGroup struct {
	ItemID string
	Series map[engine.SeriesKey][]engine.PriceRecord
}

// Store indexes one complete load of price records.
type Store struct {
	records  []engine.PriceRecord
	byItem   map[string][]engine.PriceRecord
	bySeries map[string]map[engine.SeriesKey][]engine.PriceRecord
	groups   map[string]*ItemGroup

	items []Item
	dates []string

	matrixDates []string
	matrix      map[string]map[string]int64 // item id → date → day-min price

	lastTimestamp time.Time
}

// validSeries reports whether a record belongs to one of the fixed series
// columns.
func validSeries(r engine.PriceRecord) bool {
	key := engine.SeriesKey{Grade: r.Grade, Refine: r.Refine}
	for _, col := range engine.SeriesColumns {
		if col.Key == key {
			return true
		}
	}
	return false
}

func cardFree(r engine.PriceRecord) bool {
	return r.Card1 == "" && r.Card2 == "" && r.Card3 == "" && r.Card4 == ""
}

// Build indexes a parsed load. Slot ordering and labels come from cfg.
func Build(meta *feed.Meta, records []engine.PriceRecord, lastTimestamp time.Time, cfg *config.Config) *Store {
	s := &Store{
		records:       records,
		byItem:        make(map[string][]engine.PriceRecord),
		bySeries:      make(map[string]map[engine.SeriesKey][]engine.PriceRecord),
		groups:        make(map[string]*ItemGroup),
		matrix:        make(map[string]map[string]int64),
		lastTimestamp: lastTimestamp,
	}

	dateSet := make(map[string]bool)
	for _, r := range records {
		s.byItem[r.ItemID] = append(s.byItem[r.ItemID], r)
		dateSet[engine.JSTDate(r.Time)] = true

		key := engine.SeriesKey{Grade: r.Grade, Refine: r.Refine}
		bm, ok := s.bySeries[r.ItemID]
		if !ok {
			bm = make(map[engine.SeriesKey][]engine.PriceRecord)
			s.bySeries[r.ItemID] = bm
		}
		bm[key] = append(bm[key], r)

		if cardFree(r) && validSeries(r) {
			g, ok := s.groups[r.ItemID]
			if !ok {
				g = &ItemGroup{ItemID: r.ItemID, Series: make(map[engine.SeriesKey][]engine.PriceRecord)}
				s.groups[r.ItemID] = g
			}
			g.Series[key] = append(g.Series[key], r)
		}
	}

	s.dates = sortedKeys(dateSet)
	s.buildItems(meta, cfg)
	s.buildMatrix()
	return s
}

func (s *Store) buildItems(meta *feed.Meta, cfg *config.Config) {
	s.items = make([]Item, 0, len(s.byItem))
	for id, recs := range s.byItem {
		kind := meta.Kind(id)
		s.items = append(s.items, Item{
			ID:    id,
			Name:  meta.Name(id),
			Kind:  kind,
			Slot:  cfg.SlotLabel(kind),
			Yomi:  meta.Yomi[id],
			Count: len(recs),
		})
	}
	sort.Slice(s.items, func(i, j int) bool {
		a, b := s.items[i], s.items[j]
		ao, bo := slotRank(cfg, a.Kind), slotRank(cfg, b.Kind)
		if ao != bo {
			return ao < bo
		}
		ak, bk := sortKey(a), sortKey(b)
		if ak != bk {
			return ak < bk
		}
		return a.ID < b.ID
	})
}

// slotRank maps unconfigured kinds after every configured slot.
func slotRank(cfg *config.Config, kind int) int {
	if i := cfg.SlotOrder(kind); i >= 0 {
		return i
	}
	return len(cfg.SlotGroups)
}

func sortKey(it Item) string {
	if it.Yomi != "" {
		return it.Yomi
	}
	return it.Name
}

// buildMatrix computes the representative-series day minima per item, over
// card-free records only.
func (s *Store) buildMatrix() {
	dateSet := make(map[string]bool)
	for id, g := range s.groups {
		recs := g.Series[representativeSeries]
		if len(recs) == 0 {
			continue
		}
		mins := engine.DayMinPrices(recs)
		s.matrix[id] = mins
		for d := range mins {
			dateSet[d] = true
		}
	}
	s.matrixDates = sortedKeys(dateSet)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Records returns all records of one item, nil when the item has none.
func (s *Store) Records(itemID string) []engine.PriceRecord {
	return s.byItem[itemID]
}

// SeriesRecords returns one item's records for a single series.
func (s *Store) SeriesRecords(itemID string, key engine.SeriesKey) []engine.PriceRecord {
	if bm, ok := s.bySeries[itemID]; ok {
		return bm[key]
	}
	return nil
}

// Group returns the card-free series group for an item, nil when absent.
func (s *Store) Group(itemID string) *ItemGroup {
	return s.groups[itemID]
}

// Items returns the sorted item list.
func (s *Store) Items() []Item {
	return s.items
}

// HasItem reports whether any record exists for the item.
func (s *Store) HasItem(itemID string) bool {
	_, ok := s.byItem[itemID]
	return ok
}

// Dates returns every JST date with at least one trade, ascending.
func (s *Store) Dates() []string {
	return s.dates
}

// LatestDate returns the newest trading date, "" when the store is empty.
func (s *Store) LatestDate() string {
	if len(s.dates) == 0 {
		return ""
	}
	return s.dates[len(s.dates)-1]
}

// MatrixDates returns the date axis of the overall day-min matrix.
func (s *Store) MatrixDates() []string {
	return s.matrixDates
}

// MatrixRow returns one item's day-min prices keyed by JST date, nil when
// the item has no representative-series trades.
func (s *Store) MatrixRow(itemID string) map[string]int64 {
	return s.matrix[itemID]
}

// RecordCount returns the number of indexed records.
func (s *Store) RecordCount() int {
	return len(s.records)
}

// LastTimestamp returns the latest trade time observed in the load.
func (s *Store) LastTimestamp() time.Time {
	return s.lastTimestamp
}
