package feed

import (
	"context"
	"strings"
	"testing"
	"time"
)

const metaTSV = "item_id\titem_name\tkind\tyomi\n" +
	"1001\tExcalibur\t9\texcalibur\n" +
	"1002\tAegis\t61\taegis\n" +
	"\tNoID\t9\tnoid\n" +
	"1003\t\t50\t\n"

func TestParseMeta(t *testing.T) {
	meta, err := ParseMeta(context.Background(), metaTSV)
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Names) != 3 {
		t.Fatalf("parsed %d items, want 3", len(meta.Names))
	}
	if meta.Name("1001") != "Excalibur" || meta.Kind("1001") != 9 {
		t.Errorf("item 1001 = %q kind %d", meta.Name("1001"), meta.Kind("1001"))
	}
	// Blank name falls back to the id.
	if meta.Name("1003") != "1003" {
		t.Errorf("blank name fallback = %q", meta.Name("1003"))
	}
	if meta.Kind("9999") != -1 {
		t.Error("unknown item kind should be -1")
	}
	if meta.Has("") {
		t.Error("row without item_id must be skipped")
	}
}

const priceHeader = "timestamp\titem_id\tprice\tgrade\trefine\tcard1\tcard2\tcard3\tcard4\n"

func TestParsePrices_DropsBadRows(t *testing.T) {
	meta, _ := ParseMeta(context.Background(), metaTSV)
	text := priceHeader +
		"2026-03-01T12:00:00Z\t1001\t1000000\t0\t10\t\t\t\t\n" +
		"2026-03-01T13:00:00Z\t9999\t500\t0\t10\t\t\t\t\n" + // unknown item
		"\t1001\t500\t0\t10\t\t\t\t\n" + // no timestamp
		"2026-03-01T14:00:00Z\t1001\tabc\t0\t10\t\t\t\t\n" + // bad price
		"2026-03-01T15:00:00Z\t1002\t2500000\t1\t7\tBell\tSharp\t\t\n"

	records, latest, err := ParsePrices(context.Background(), text, meta, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("parsed %d records, want 2", len(records))
	}
	r := records[1]
	if r.ItemID != "1002" || r.Price != 2500000 || r.Grade != 1 || r.Refine != 7 {
		t.Errorf("record = %+v", r)
	}
	if r.Card1 != "Bell" || r.Card2 != "Sharp" {
		t.Errorf("cards = %q %q", r.Card1, r.Card2)
	}
	want := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	if !latest.Equal(want) {
		t.Errorf("latest = %v, want %v", latest, want)
	}
}

func TestParsePrices_NaiveTimestampsAreJST(t *testing.T) {
	meta, _ := ParseMeta(context.Background(), metaTSV)
	text := priceHeader + "2026-03-01 09:00:00\t1001\t100\t0\t10\t\t\t\t\n"
	records, _, err := ParsePrices(context.Background(), text, meta, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatal("expected one record")
	}
	// 09:00 JST is midnight UTC.
	if got := records[0].Time.UTC(); got != time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("parsed time = %v", got)
	}
}

func TestParsePrices_DateRange(t *testing.T) {
	meta, _ := ParseMeta(context.Background(), metaTSV)
	text := priceHeader +
		"2026-02-28T20:00:00Z\t1001\t100\t0\t10\t\t\t\t\n" + // 2026-03-01 JST
		"2026-02-28T10:00:00Z\t1001\t200\t0\t10\t\t\t\t\n" + // 2026-02-28 JST, before range
		"2026-03-02T20:00:00Z\t1001\t300\t0\t10\t\t\t\t\n" // 2026-03-03 JST, after range

	records, _, err := ParsePrices(context.Background(), text, meta, "2026-03-01", "2026-03-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Price != 100 {
		t.Errorf("range-restricted records = %+v", records)
	}
}

func TestParsePrices_CancelledContext(t *testing.T) {
	meta, _ := ParseMeta(context.Background(), metaTSV)
	var b strings.Builder
	b.WriteString(priceHeader)
	for i := 0; i < ctxCheckInterval*2; i++ {
		b.WriteString("2026-03-01T12:00:00Z\t1001\t100\t0\t10\t\t\t\t\n")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := ParsePrices(ctx, b.String(), meta, "", ""); err == nil {
		t.Error("cancelled context should abort parsing")
	}
}

func TestHeaderIndex_FirstOccurrenceWins(t *testing.T) {
	cols := headerIndex("a\tb\ta")
	if cols["a"] != 0 || cols["b"] != 1 {
		t.Errorf("cols = %v", cols)
	}
}

func TestSplitLines_NormalizesCRLF(t *testing.T) {
	lines := splitLines("a\r\nb\r\n")
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("lines = %q", lines)
	}
	if splitLines("  \n ") != nil {
		t.Error("blank text should yield no lines")
	}
}
