package engine

import (
	"math"
	"sort"
)

// Rank is the conditional-formatting class for a numeric table cell.
type Rank string

const (
	RankNone Rank = ""
	RankTop  Rank = "top"
	RankHigh Rank = "high"
	RankMid  Rank = "mid"
)

// RankThresholds holds the cut points that drive price-rank highlighting.
// Mid and High sit at the 50th and 80th index of the sorted distinct value
// set; a cut that falls past the end disables that band.
type RankThresholds struct {
	Max  int64
	Mid  int64
	High int64

	hasMax  bool
	hasMid  bool
	hasHigh bool
}

// ComputeRankThresholds derives thresholds from one value per entity.
// Values <= 0 contribute nothing.
func ComputeRankThresholds(values []int64) RankThresholds {
	distinct := distinctPositive(values)
	if len(distinct) == 0 {
		return RankThresholds{}
	}

	t := RankThresholds{
		Max:    distinct[len(distinct)-1],
		hasMax: true,
	}
	if i := int(float64(len(distinct)) * 0.5); i < len(distinct) {
		t.Mid = distinct[i]
		t.hasMid = true
	}
	if i := int(float64(len(distinct)) * 0.8); i < len(distinct) {
		t.High = distinct[i]
		t.hasHigh = true
	}
	return t
}

// Classify ranks a single value against the thresholds. Non-positive values
// are never classified.
func (t RankThresholds) Classify(v int64) Rank {
	if v <= 0 || !t.hasMax {
		return RankNone
	}
	if v == t.Max {
		return RankTop
	}
	if t.hasHigh && v >= t.High {
		return RankHigh
	}
	if t.hasMid && v >= t.Mid {
		return RankMid
	}
	return RankNone
}

// ClassifyEach ranks every value, awarding RankTop to the first maximum only;
// later ties degrade to RankHigh.
func ClassifyEach(values []int64, t RankThresholds) []Rank {
	ranks := make([]Rank, len(values))
	topTaken := false
	for i, v := range values {
		r := t.Classify(v)
		if r == RankTop {
			if topTaken {
				r = RankHigh
			}
			topTaken = true
		}
		ranks[i] = r
	}
	return ranks
}

// MatrixClass is the conditional-formatting class for an overall-matrix cell,
// highlighting the row minimum and the cheap end of the row's price range.
type MatrixClass string

const (
	MatrixNone    MatrixClass = ""
	MatrixMin     MatrixClass = "min"
	MatrixCheap20 MatrixClass = "cheap2"
	MatrixCheap50 MatrixClass = "cheap3"
)

// MatrixCellClass classifies one cell against its row. The row minimum wins;
// otherwise cells at or below the 20th / 50th index of the row's sorted
// distinct prices get the cheap bands.
func MatrixCellClass(price int64, rowPrices []int64) MatrixClass {
	if price <= 0 {
		return MatrixNone
	}
	distinct := distinctPositive(rowPrices)
	if len(distinct) == 0 {
		return MatrixNone
	}
	if price == distinct[0] {
		return MatrixMin
	}
	if len(distinct) == 1 {
		return MatrixNone
	}
	if i := int(float64(len(distinct)) * 0.2); i < len(distinct) && price <= distinct[i] {
		return MatrixCheap20
	}
	if i := int(float64(len(distinct)) * 0.5); i < len(distinct) && price <= distinct[i] {
		return MatrixCheap50
	}
	return MatrixNone
}

// DiffBand classifies a +9→+10 price-difference cell against the column's
// observed range.
type DiffBand string

const (
	DiffBandNone   DiffBand = ""
	DiffBandMax    DiffBand = "max"
	DiffBandTop    DiffBand = "top"
	DiffBandBottom DiffBand = "bottom"
)

// DiffThresholds holds the range-based cuts for the difference column:
// the top and bottom 20% of the min..max span.
type DiffThresholds struct {
	Min, Max    int64
	Top, Bottom float64
	ok          bool
}

// ComputeDiffThresholds derives difference-column cuts from the observed
// min and max. A degenerate range disables the bands.
func ComputeDiffThresholds(min, max int64) DiffThresholds {
	if min >= max || min == math.MaxInt64 || max == math.MinInt64 {
		return DiffThresholds{Min: min, Max: max}
	}
	span := float64(max - min)
	return DiffThresholds{
		Min:    min,
		Max:    max,
		Top:    float64(max) - span*0.2,
		Bottom: float64(min) + span*0.2,
		ok:     true,
	}
}

// Classify bands one difference value. The exact maximum gets its own band.
func (t DiffThresholds) Classify(diff int64) DiffBand {
	if !t.ok {
		return DiffBandNone
	}
	switch {
	case diff == t.Max:
		return DiffBandMax
	case float64(diff) >= t.Top:
		return DiffBandTop
	case float64(diff) <= t.Bottom:
		return DiffBandBottom
	default:
		return DiffBandNone
	}
}

// distinctPositive returns the sorted ascending set of distinct positive
// values.
func distinctPositive(values []int64) []int64 {
	seen := make(map[int64]bool, len(values))
	var out []int64
	for _, v := range values {
		if v > 0 && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
