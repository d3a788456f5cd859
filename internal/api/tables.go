package api

import (
	"math"
	"net/http"
	"strconv"

	"refine-board/internal/engine"
)

// RefinedCell is one (item, series) cell of the day comparison table.
type RefinedCell struct {
	Stats engine.CellStats `json:"stats"`
	Rank  engine.Rank      `json:"rank,omitempty"`
}

// RefinedDiff is the +9→+10 price-step column of a row.
type RefinedDiff struct {
	Value int64           `json:"value"`
	OK    bool            `json:"ok"`
	Band  engine.DiffBand `json:"band,omitempty"`
}

// RefinedRow is one item's row of the day comparison table.
type RefinedRow struct {
	ItemID string        `json:"item_id"`
	Name   string        `json:"name"`
	Slot   string        `json:"slot"`
	Cells  []RefinedCell `json:"cells"`
	Diff   RefinedDiff   `json:"diff"`
}

var (
	diffFromKey = engine.SeriesKey{Grade: 0, Refine: 9}
	diffToKey   = engine.SeriesKey{Grade: 0, Refine: 10}
)

// handleRefined serves the per-item comparison table for one JST day: the 8
// series columns with day statistics and staleness, per-column rank classes,
// and the banded +9→+10 price step.
func (s *Server) handleRefined(w http.ResponseWriter, r *http.Request) {
	if !s.isReady() {
		writeError(w, http.StatusServiceUnavailable, "data not loaded yet")
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	date := engine.ExpandDate(r.URL.Query().Get("date"))
	if date == "" {
		date = s.store.LatestDate()
	}
	maxDaysAgo := -1
	if v := r.URL.Query().Get("max_days_ago"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			maxDaysAgo = n
		}
	}

	var rows []RefinedRow
	for _, item := range s.store.Items() {
		group := s.store.Group(item.ID)
		if group == nil {
			continue
		}
		row := RefinedRow{
			ItemID: item.ID,
			Name:   item.Name,
			Slot:   item.Slot,
			Cells:  make([]RefinedCell, 0, len(engine.SeriesColumns)),
		}
		for _, col := range engine.SeriesColumns {
			stats := engine.CellData(group.Series[col.Key], date, maxDaysAgo, engine.MinOf)
			row.Cells = append(row.Cells, RefinedCell{Stats: stats})
		}
		rows = append(rows, row)
	}

	classifyColumns(rows)
	classifyDiffs(rows)

	columns := make([]string, len(engine.SeriesColumns))
	for i, col := range engine.SeriesColumns {
		columns[i] = col.Label
	}
	writeJSON(w, map[string]interface{}{
		"date":    date,
		"columns": columns,
		"rows":    rows,
	})
}

// classifyColumns ranks each column's cells against that column's per-item
// values. Only one cell per column gets the top rank on ties.
func classifyColumns(rows []RefinedRow) {
	for c := range engine.SeriesColumns {
		values := make([]int64, len(rows))
		for i, row := range rows {
			if row.Cells[c].Stats.DaysAgo >= 0 {
				values[i] = row.Cells[c].Stats.Price
			}
		}
		ranks := engine.ClassifyEach(values, engine.ComputeRankThresholds(values))
		for i := range rows {
			rows[i].Cells[c].Rank = ranks[i]
		}
	}
}

// classifyDiffs computes the +9→+10 price step per row and bands it against
// the observed range across all rows.
func classifyDiffs(rows []RefinedRow) {
	fromCol, toCol := columnIndex(diffFromKey), columnIndex(diffToKey)

	min, max := int64(math.MaxInt64), int64(math.MinInt64)
	for i := range rows {
		from, to := rows[i].Cells[fromCol].Stats, rows[i].Cells[toCol].Stats
		if from.DaysAgo < 0 || to.DaysAgo < 0 || from.Price <= 0 || to.Price <= 0 {
			continue
		}
		d := to.Price - from.Price
		rows[i].Diff = RefinedDiff{Value: d, OK: true}
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}

	t := engine.ComputeDiffThresholds(min, max)
	for i := range rows {
		if rows[i].Diff.OK {
			rows[i].Diff.Band = t.Classify(rows[i].Diff.Value)
		}
	}
}

func columnIndex(key engine.SeriesKey) int {
	for i, col := range engine.SeriesColumns {
		if col.Key == key {
			return i
		}
	}
	return -1
}

// MatrixCell is one (item, date) cell of the overall day-min matrix.
type MatrixCell struct {
	Price int64              `json:"price"`
	Class engine.MatrixClass `json:"class,omitempty"`
}

// MatrixRow is one item's row, cells aligned to the response date axis.
type MatrixRow struct {
	ItemID string       `json:"item_id"`
	Name   string       `json:"name"`
	Slot   string       `json:"slot"`
	Cells  []MatrixCell `json:"cells"`
}

// handleMatrix serves the overall day-min matrix over the representative
// series, windowed to the trailing ?days= dates (default 30).
func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	if !s.isReady() {
		writeError(w, http.StatusServiceUnavailable, "data not loaded yet")
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	dates := s.store.MatrixDates()
	if len(dates) > days {
		dates = dates[len(dates)-days:]
	}

	var rows []MatrixRow
	for _, item := range s.store.Items() {
		mins := s.store.MatrixRow(item.ID)
		if mins == nil {
			continue
		}
		row := MatrixRow{
			ItemID: item.ID,
			Name:   item.Name,
			Slot:   item.Slot,
			Cells:  make([]MatrixCell, len(dates)),
		}
		var rowPrices []int64
		for _, d := range dates {
			if p, ok := mins[d]; ok {
				rowPrices = append(rowPrices, p)
			}
		}
		for i, d := range dates {
			if p, ok := mins[d]; ok {
				row.Cells[i] = MatrixCell{Price: p, Class: engine.MatrixCellClass(p, rowPrices)}
			}
		}
		rows = append(rows, row)
	}

	writeJSON(w, map[string]interface{}{
		"dates": dates,
		"rows":  rows,
	})
}
