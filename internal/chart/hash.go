// Package chart owns the selection state of the price chart view: which
// item, series, and granularity are shown, which ticker filters apply, and
// how that state round-trips through location-hash URLs.
package chart

import (
	"fmt"
	"strconv"
	"strings"

	"refine-board/internal/engine"
)

// BuildHash serializes a selection as a location hash:
// #/item/{id}/refine/{n}[/grade/{n}]/agg/{g}. Grade 0 is omitted.
func BuildHash(itemID string, key engine.SeriesKey, g engine.Granularity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#/item/%s/refine/%d", itemID, key.Refine)
	if key.Grade != 0 {
		fmt.Fprintf(&b, "/grade/%d", key.Grade)
	}
	fmt.Fprintf(&b, "/agg/%s", g)
	return b.String()
}

// ParseHash decodes a location hash built by BuildHash. Missing refine or
// grade segments yield the default series; a missing or unknown agg segment
// yields the default granularity. The bool is false when no item id is
// present.
func ParseHash(hash string, defKey engine.SeriesKey, defGran engine.Granularity) (string, engine.SeriesKey, engine.Granularity, bool) {
	hash = strings.TrimPrefix(hash, "#")
	hash = strings.TrimPrefix(hash, "/")

	parts := strings.Split(hash, "/")
	vals := make(map[string]string)
	for i := 0; i+1 < len(parts); i += 2 {
		vals[parts[i]] = parts[i+1]
	}

	itemID := vals["item"]
	if itemID == "" {
		return "", defKey, defGran, false
	}

	key := defKey
	if v, ok := vals["refine"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			key = engine.SeriesKey{Grade: 0, Refine: n}
			if gv, ok := vals["grade"]; ok {
				if g, err := strconv.Atoi(gv); err == nil {
					key.Grade = g
				}
			}
		}
	}

	gran := engine.NormalizeGranularity(vals["agg"], defGran)
	return itemID, key, gran, true
}
