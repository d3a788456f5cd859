package feed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"refine-board/internal/engine"
)

// ctxCheckInterval is how many rows the parsers process between context
// checks, so a cancelled reload stops promptly on large feeds.
const ctxCheckInterval = 2048

// jst interprets naive feed timestamps, which are written in JST.
var jst = time.FixedZone("JST", 9*3600)

// Meta is the parsed item metadata feed: id → display name, plus optional
// category kind and phonetic search key per item.
type Meta struct {
	Names map[string]string
	Kinds map[string]int
	Yomi  map[string]string
}

// Has reports whether an item id appears in the metadata feed.
func (m *Meta) Has(itemID string) bool {
	_, ok := m.Names[itemID]
	return ok
}

// Name returns the display name, falling back to the id itself.
func (m *Meta) Name(itemID string) string {
	if name, ok := m.Names[itemID]; ok && name != "" {
		return name
	}
	return itemID
}

// Kind returns the item's category kind, or -1 when unset.
func (m *Meta) Kind(itemID string) int {
	if k, ok := m.Kinds[itemID]; ok {
		return k
	}
	return -1
}

// ParseMeta parses the metadata feed. Rows without an item_id are skipped.
func ParseMeta(ctx context.Context, text string) (*Meta, error) {
	meta := &Meta{
		Names: make(map[string]string),
		Kinds: make(map[string]int),
		Yomi:  make(map[string]string),
	}

	lines := splitLines(text)
	if len(lines) == 0 {
		return meta, nil
	}
	cols := headerIndex(lines[0])

	for i, line := range lines[1:] {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		itemID := field(fields, cols, "item_id")
		if itemID == "" {
			continue
		}
		name := field(fields, cols, "item_name")
		if name == "" {
			name = itemID
		}
		meta.Names[itemID] = name
		if v := field(fields, cols, "kind"); v != "" {
			if kind, err := strconv.Atoi(v); err == nil {
				meta.Kinds[itemID] = kind
			}
		}
		if v := field(fields, cols, "yomi"); v != "" {
			meta.Yomi[itemID] = v
		}
	}
	return meta, nil
}

// ParsePrices parses the price feed against already-loaded metadata.
// Rows with a missing timestamp, unparseable price, or an item_id absent
// from the metadata are dropped silently. When from/to are non-empty JST
// dates, rows outside [from 00:00, to 24:00) JST are dropped at parse time.
// Returns the records and the latest observed trade time.
func ParsePrices(ctx context.Context, text string, meta *Meta, from, to string) ([]engine.PriceRecord, time.Time, error) {
	var (
		records []engine.PriceRecord
		latest  time.Time
	)

	lines := splitLines(text)
	if len(lines) == 0 {
		return records, latest, nil
	}
	cols := headerIndex(lines[0])

	var rangeFrom, rangeTo time.Time
	if from != "" {
		rangeFrom, _ = engine.JSTDayRange(from)
	}
	if to != "" {
		_, rangeTo = engine.JSTDayRange(to)
	}

	for i, line := range lines[1:] {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, time.Time{}, err
			}
		}
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		ts := field(fields, cols, "timestamp")
		priceStr := field(fields, cols, "price")
		itemID := field(fields, cols, "item_id")
		if ts == "" || priceStr == "" || !meta.Has(itemID) {
			continue
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			continue
		}
		when, err := parseTimestamp(ts)
		if err != nil {
			continue
		}
		if !rangeFrom.IsZero() && when.Before(rangeFrom) {
			continue
		}
		if !rangeTo.IsZero() && !when.Before(rangeTo) {
			continue
		}

		grade, _ := strconv.Atoi(field(fields, cols, "grade"))
		refine, _ := strconv.Atoi(field(fields, cols, "refine"))

		if when.After(latest) {
			latest = when
		}
		records = append(records, engine.PriceRecord{
			Time:   when,
			TimeMs: when.UnixMilli(),
			ItemID: itemID,
			Price:  int64(price),
			Grade:  grade,
			Refine: refine,
			Card1:  field(fields, cols, "card1"),
			Card2:  field(fields, cols, "card2"),
			Card3:  field(fields, cols, "card3"),
			Card4:  field(fields, cols, "card4"),
		})
	}
	return records, latest, nil
}

// parseTimestamp accepts RFC3339 and the naive "date time" forms the sheet
// exports; naive forms are interpreted as JST.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006/01/02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, jst); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: time.RFC3339, Value: s}
}

func splitLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// headerIndex maps column names to positions. The first occurrence wins for
// duplicated header names.
func headerIndex(header string) map[string]int {
	cols := make(map[string]int)
	for i, name := range strings.Split(header, "\t") {
		if _, ok := cols[name]; !ok {
			cols[name] = i
		}
	}
	return cols
}

func field(fields []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return fields[i]
}
