package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PriceRecord is one observed trade from the price feed. Immutable after
// ingest; the whole record set is replaced on every data load.
type PriceRecord struct {
	Time   time.Time `json:"-"`
	TimeMs int64     `json:"ts"` // unix milliseconds, for the rendering boundary
	ItemID string    `json:"item_id"`
	Price  int64     `json:"price"`
	Grade  int       `json:"grade"`
	Refine int       `json:"refine"`
	Card1  string    `json:"card1,omitempty"`
	Card2  string    `json:"card2,omitempty"`
	Card3  string    `json:"card3,omitempty"`
	Card4  string    `json:"card4,omitempty"`
}

// SeriesKey identifies one trading line of an item: a (grade, refine)
// combination, serialized "grade_refine".
type SeriesKey struct {
	Grade  int
	Refine int
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%d_%d", k.Grade, k.Refine)
}

// ParseSeriesKey parses the "grade_refine" form.
func ParseSeriesKey(s string) (SeriesKey, bool) {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return SeriesKey{}, false
	}
	g, err1 := strconv.Atoi(parts[0])
	r, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return SeriesKey{}, false
	}
	return SeriesKey{Grade: g, Refine: r}, true
}

// SeriesColumn is one column of the 8-column refine comparison matrix.
type SeriesColumn struct {
	Label string
	Key   SeriesKey
}

// SeriesColumns is the fixed set of supported trading lines, in display
// order: +7..+10 plain, then +7..+10 with one star.
var SeriesColumns = []SeriesColumn{
	{Label: "+7", Key: SeriesKey{0, 7}},
	{Label: "+8", Key: SeriesKey{0, 8}},
	{Label: "+9", Key: SeriesKey{0, 9}},
	{Label: "+10", Key: SeriesKey{0, 10}},
	{Label: "+7(★1)", Key: SeriesKey{1, 7}},
	{Label: "+8(★1)", Key: SeriesKey{1, 8}},
	{Label: "+9(★1)", Key: SeriesKey{1, 9}},
	{Label: "+10(★1)", Key: SeriesKey{1, 10}},
}

// SeriesLabel returns the display label for a key, synthesizing one for keys
// outside the fixed column set.
func SeriesLabel(key SeriesKey) string {
	for _, col := range SeriesColumns {
		if col.Key == key {
			return col.Label
		}
	}
	label := fmt.Sprintf("+%d", key.Refine)
	if key.Grade > 0 {
		label += fmt.Sprintf(" ★%d", key.Grade)
	}
	return label
}

// Granularity selects the bucket width for aggregation.
type Granularity string

const (
	GranularityRaw Granularity = "raw"
	Granularity3h  Granularity = "3h"
	Granularity6h  Granularity = "6h"
	Granularity1d  Granularity = "1d"
)

// AggGranularities are the selectable aggregated-chart widths, in UI order.
// Raw is always shown alongside and is not part of this set.
var AggGranularities = []Granularity{Granularity3h, Granularity6h, Granularity1d}

// NormalizeGranularity maps arbitrary input to a valid aggregated
// granularity, falling back to def.
func NormalizeGranularity(s string, def Granularity) Granularity {
	for _, g := range AggGranularities {
		if Granularity(s) == g {
			return g
		}
	}
	return def
}

func (g Granularity) bucketSeconds() int64 {
	switch g {
	case Granularity3h:
		return 3 * 3600
	case Granularity6h:
		return 6 * 3600
	case Granularity1d:
		return 24 * 3600
	default:
		return 24 * 3600
	}
}

// Bucket is one time-windowed statistical summary of prices within a series.
// Time is the bucket start in JST-shifted unix seconds, the coordinate the
// chart boundary indexes points by.
type Bucket struct {
	Time   int64 `json:"time"`
	Low    int64 `json:"low"`
	High   int64 `json:"high"`
	Q1     int64 `json:"q1"`
	Q3     int64 `json:"q3"`
	Median int64 `json:"median"`
	Count  int   `json:"count"`
}

// Aggregate groups records into buckets of the given granularity and
// computes per-bucket statistics, one ascending sequence per SeriesKey
// present in the input. No empty buckets are emitted for gaps, and the
// result is deterministic for identical input.
func Aggregate(records []PriceRecord, g Granularity) map[SeriesKey][]Bucket {
	if g == GranularityRaw {
		return aggregateRaw(records)
	}

	bucketSec := g.bucketSeconds()
	prices := make(map[SeriesKey]map[int64][]int64)

	for _, r := range records {
		key := SeriesKey{Grade: r.Grade, Refine: r.Refine}
		bucketTime := (r.Time.Unix() + jstOffsetSec) / bucketSec * bucketSec
		bm, ok := prices[key]
		if !ok {
			bm = make(map[int64][]int64)
			prices[key] = bm
		}
		bm[bucketTime] = append(bm[bucketTime], r.Price)
	}

	out := make(map[SeriesKey][]Bucket, len(prices))
	for key, bm := range prices {
		times := make([]int64, 0, len(bm))
		for t := range bm {
			times = append(times, t)
		}
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

		buckets := make([]Bucket, 0, len(times))
		for _, t := range times {
			s := bm[t]
			sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
			buckets = append(buckets, Bucket{
				Time:   t,
				Low:    s[0],
				High:   s[len(s)-1],
				Q1:     PercentileOfSorted(s, 0.25),
				Q3:     PercentileOfSorted(s, 0.75),
				Median: Median(s),
				Count:  len(s),
			})
		}
		out[key] = buckets
	}
	return out
}

// aggregateRaw emits one singleton bucket per record, in input order per
// series. Records landing on an already-used second are nudged forward so
// every point keeps a unique, strictly increasing time; same-second trade
// order is therefore input order, not an audit-grade sequence.
func aggregateRaw(records []PriceRecord) map[SeriesKey][]Bucket {
	out := make(map[SeriesKey][]Bucket)

	for _, r := range records {
		key := SeriesKey{Grade: r.Grade, Refine: r.Refine}
		arr := out[key]

		t := r.Time.Unix() + jstOffsetSec
		if n := len(arr); n > 0 && t <= arr[n-1].Time {
			t = arr[n-1].Time + 1
		}

		out[key] = append(arr, Bucket{
			Time:   t,
			Low:    r.Price,
			High:   r.Price,
			Q1:     r.Price,
			Q3:     r.Price,
			Median: r.Price,
			Count:  1,
		})
	}
	return out
}
