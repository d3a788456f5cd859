package engine

import (
	"sort"
	"time"
)

// Summary is the trading-board digest of a (filtered) record set: the latest
// trade, its change versus the previous trade, and OHLC/volume figures for
// the latest JST trading day.
type Summary struct {
	LatestPrice int64   `json:"latest_price"`
	LatestTime  int64   `json:"latest_ts"` // unix milliseconds
	PrevPrice   int64   `json:"prev_price"`
	HasPrev     bool    `json:"has_prev"`
	Change      int64   `json:"change"`
	ChangePct   float64 `json:"change_pct"`

	LatestDay string `json:"latest_day"`
	Open      int64  `json:"open"`
	Close     int64  `json:"close"`
	High      int64  `json:"high"`
	Low       int64  `json:"low"`

	VWAP        float64 `json:"vwap"`
	Turnover    int64   `json:"turnover"`
	Volume      int     `json:"volume"`
	TotalTrades int     `json:"total_trades"`
	FirstTime   int64   `json:"first_ts"`
	LastTime    int64   `json:"last_ts"`
}

// BoardSummary digests records into a Summary. The bool is false for an
// empty record set.
func BoardSummary(records []PriceRecord) (Summary, bool) {
	if len(records) == 0 {
		return Summary{}, false
	}

	asc := make([]PriceRecord, len(records))
	copy(asc, records)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].Time.Before(asc[j].Time) })

	latest := asc[len(asc)-1]
	s := Summary{
		LatestPrice: latest.Price,
		LatestTime:  latest.Time.UnixMilli(),
		LatestDay:   JSTDate(latest.Time),
		TotalTrades: len(asc),
		FirstTime:   asc[0].Time.UnixMilli(),
		LastTime:    latest.Time.UnixMilli(),
	}

	if len(asc) > 1 {
		prev := asc[len(asc)-2]
		s.PrevPrice = prev.Price
		s.HasPrev = true
		s.Change = latest.Price - prev.Price
		if prev.Price > 0 {
			s.ChangePct = float64(latest.Price-prev.Price) / float64(prev.Price) * 100
		}
	}

	for _, r := range asc {
		if JSTDate(r.Time) != s.LatestDay {
			continue
		}
		if s.Volume == 0 {
			s.Open = r.Price
			s.High = r.Price
			s.Low = r.Price
		}
		s.Close = r.Price
		if r.Price > s.High {
			s.High = r.Price
		}
		if r.Price < s.Low {
			s.Low = r.Price
		}
		s.Turnover += r.Price
		s.Volume++
	}
	if s.Volume > 0 {
		s.VWAP = float64(s.Turnover) / float64(s.Volume)
	}
	return s, true
}

// CellStats is one day cell of the refine comparison table: the day's
// statistic, how stale it is when the requested day had no trades, and the
// preceding trading day's statistic for up/down coloring.
type CellStats struct {
	Price     int64 `json:"price"`
	Count     int   `json:"count"`
	DaysAgo   int   `json:"days_ago"` // -1 when no data at all
	PrevPrice int64 `json:"prev_price"`
}

// CellData computes the day statistic for date. When that day has no trades
// it falls back to the most recent earlier trading day, reporting the
// distance in DaysAgo; a fallback older than maxDaysAgo (when >= 0) counts
// as no data.
func CellData(records []PriceRecord, date string, maxDaysAgo int, stat func([]int64) int64) CellStats {
	from, to := JSTDayRange(date)
	currentDate := date
	dayPrices := pricesWithin(records, from, to)
	daysAgo := 0

	if len(dayPrices) == 0 {
		latest, ok := latestBefore(records, from)
		if !ok {
			return CellStats{DaysAgo: -1}
		}
		currentDate = JSTDate(latest)
		lf, lt := JSTDayRange(currentDate)
		dayPrices = pricesWithin(records, lf, lt)
		daysAgo = DaysBetween(currentDate, date)
		if maxDaysAgo >= 0 && daysAgo > maxDaysAgo {
			return CellStats{DaysAgo: -1}
		}
	}

	out := CellStats{
		Price:   stat(dayPrices),
		Count:   len(dayPrices),
		DaysAgo: daysAgo,
	}

	currentFrom, _ := JSTDayRange(currentDate)
	if prevLatest, ok := latestBefore(records, currentFrom); ok {
		pf, pt := JSTDayRange(JSTDate(prevLatest))
		out.PrevPrice = stat(pricesWithin(records, pf, pt))
	}
	return out
}

// DayMinPrices maps each JST trading day to its lowest price.
func DayMinPrices(records []PriceRecord) map[string]int64 {
	out := make(map[string]int64)
	for _, r := range records {
		day := JSTDate(r.Time)
		if prev, ok := out[day]; !ok || r.Price < prev {
			out[day] = r.Price
		}
	}
	return out
}

func pricesWithin(records []PriceRecord, from, to time.Time) []int64 {
	var prices []int64
	for _, r := range records {
		if !r.Time.Before(from) && r.Time.Before(to) {
			prices = append(prices, r.Price)
		}
	}
	return prices
}

func latestBefore(records []PriceRecord, cutoff time.Time) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, r := range records {
		if r.Time.Before(cutoff) && (!found || r.Time.After(latest)) {
			latest = r.Time
			found = true
		}
	}
	return latest, found
}
