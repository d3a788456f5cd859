package engine

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// All day boundaries in this package use a fixed UTC+9 offset, never the
// host's local timezone. The feeds record trades in JST and the dashboard's
// "day" is a JST day regardless of where the binary runs.
const jstOffsetSec = 9 * 3600

// JSTDate converts an instant to its JST calendar-date string "YYYY-MM-DD".
func JSTDate(t time.Time) string {
	s := t.UTC().Add(jstOffsetSec * time.Second)
	return s.Format("2006-01-02")
}

// JSTDayRange returns the [from, to) instant range covering one JST calendar
// day. A malformed date yields a zero range that matches no record.
func JSTDayRange(date string) (from, to time.Time) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}
	}
	from = d.Add(-jstOffsetSec * time.Second)
	return from, from.Add(24 * time.Hour)
}

// ExpandDate converts the compact hash form "20260101" to "2026-01-01".
// Already-expanded input passes through unchanged.
func ExpandDate(compact string) string {
	if len(compact) != 8 {
		return compact
	}
	return fmt.Sprintf("%s-%s-%s", compact[0:4], compact[4:6], compact[6:8])
}

// DaysBetween returns the whole-day distance from an earlier JST date to a
// later one (both "YYYY-MM-DD").
func DaysBetween(earlier, later string) int {
	a, err1 := time.Parse("2006-01-02", earlier)
	b, err2 := time.Parse("2006-01-02", later)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// Median returns the median of values. Even-length input yields the floor of
// the two middle sorted values' average; callers depend on the integer
// truncation for exact display matching. Empty input returns 0.
func Median(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	s := make([]int64, len(values))
	copy(s, values)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })

	mid := len(s) / 2
	if len(s)%2 != 0 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// MinOf returns the smallest value, or 0 for empty input.
func MinOf(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// PercentileOfSorted returns the linearly interpolated p-quantile (p in
// [0,1]) of an ascending-sorted slice, rounded to the nearest integer.
// Empty input returns 0.
func PercentileOfSorted(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := float64(len(sorted)-1) * p
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	return int64(math.Round(float64(sorted[lo]) + float64(sorted[hi]-sorted[lo])*(idx-float64(lo))))
}
