package engine

import (
	"testing"
	"time"
)

func TestBoardSummary_Empty(t *testing.T) {
	if _, ok := BoardSummary(nil); ok {
		t.Error("empty record set should yield no summary")
	}
}

func TestBoardSummary_LatestDayFigures(t *testing.T) {
	day1 := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 2, 1, 0, 0, 0, time.UTC)
	records := []PriceRecord{
		// Unsorted on purpose; BoardSummary orders by time itself.
		{Time: day2.Add(2 * time.Hour), ItemID: "A", Price: 300, Grade: 0, Refine: 10},
		{Time: day1, ItemID: "A", Price: 500, Grade: 0, Refine: 10},
		{Time: day2, ItemID: "A", Price: 200, Grade: 0, Refine: 10},
		{Time: day2.Add(4 * time.Hour), ItemID: "A", Price: 250, Grade: 0, Refine: 10},
	}

	s, ok := BoardSummary(records)
	if !ok {
		t.Fatal("expected a summary")
	}
	if s.LatestPrice != 250 || s.LatestDay != "2026-01-02" {
		t.Errorf("latest = %d on %s", s.LatestPrice, s.LatestDay)
	}
	if !s.HasPrev || s.PrevPrice != 300 || s.Change != -50 {
		t.Errorf("prev/change = %d/%d hasPrev=%v", s.PrevPrice, s.Change, s.HasPrev)
	}
	// Latest JST day covers the three day2 trades: open 200, close 250,
	// high 300, low 200, turnover 750, volume 3, VWAP 250.
	if s.Open != 200 || s.Close != 250 || s.High != 300 || s.Low != 200 {
		t.Errorf("ohlc = %d/%d/%d/%d", s.Open, s.High, s.Low, s.Close)
	}
	if s.Turnover != 750 || s.Volume != 3 || s.VWAP != 250 {
		t.Errorf("turnover=%d volume=%d vwap=%v", s.Turnover, s.Volume, s.VWAP)
	}
	if s.TotalTrades != 4 {
		t.Errorf("total trades = %d, want 4", s.TotalTrades)
	}
	if s.FirstTime != day1.UnixMilli() {
		t.Errorf("first ts = %d", s.FirstTime)
	}
}

func TestBoardSummary_SingleTrade(t *testing.T) {
	s, ok := BoardSummary([]PriceRecord{
		{Time: time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC), Price: 100},
	})
	if !ok {
		t.Fatal("expected a summary")
	}
	if s.HasPrev {
		t.Error("single trade has no previous price")
	}
	if s.Open != 100 || s.Close != 100 || s.Volume != 1 {
		t.Errorf("single-trade day figures: %+v", s)
	}
}

func TestCellData_RequestedDay(t *testing.T) {
	day := time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC)
	records := []PriceRecord{
		{Time: day, Price: 300},
		{Time: day.Add(time.Hour), Price: 100},
		{Time: day.Add(-24 * time.Hour), Price: 700}, // previous day
	}
	got := CellData(records, "2026-01-05", -1, MinOf)
	if got.Price != 100 || got.Count != 2 || got.DaysAgo != 0 {
		t.Errorf("cell = %+v", got)
	}
	if got.PrevPrice != 700 {
		t.Errorf("prev price = %d, want 700", got.PrevPrice)
	}
}

func TestCellData_FallsBackToLatestTradingDay(t *testing.T) {
	records := []PriceRecord{
		{Time: time.Date(2026, 1, 2, 1, 0, 0, 0, time.UTC), Price: 400},
	}
	got := CellData(records, "2026-01-05", -1, MinOf)
	if got.Price != 400 || got.DaysAgo != 3 {
		t.Errorf("fallback cell = %+v", got)
	}
}

func TestCellData_MaxDaysAgoCutsStaleFallback(t *testing.T) {
	records := []PriceRecord{
		{Time: time.Date(2026, 1, 2, 1, 0, 0, 0, time.UTC), Price: 400},
	}
	got := CellData(records, "2026-01-05", 0, MinOf)
	if got.DaysAgo != -1 || got.Price != 0 {
		t.Errorf("stale fallback should be cut: %+v", got)
	}
}

func TestCellData_NoDataAtAll(t *testing.T) {
	got := CellData(nil, "2026-01-05", -1, MinOf)
	if got.DaysAgo != -1 || got.Price != 0 || got.Count != 0 {
		t.Errorf("no-data cell = %+v", got)
	}
}

func TestCellData_MedianStatistic(t *testing.T) {
	day := time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC)
	records := []PriceRecord{
		{Time: day, Price: 100},
		{Time: day.Add(time.Minute), Price: 300},
	}
	got := CellData(records, "2026-01-05", -1, Median)
	if got.Price != 200 {
		t.Errorf("median cell = %d, want 200", got.Price)
	}
}

func TestDayMinPrices(t *testing.T) {
	records := []PriceRecord{
		{Time: time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC), Price: 300},
		{Time: time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC), Price: 100},
		{Time: time.Date(2026, 1, 2, 2, 0, 0, 0, time.UTC), Price: 200},
	}
	got := DayMinPrices(records)
	if got["2026-01-01"] != 100 || got["2026-01-02"] != 200 {
		t.Errorf("day minima = %v", got)
	}
}
