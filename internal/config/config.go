package config

import (
	"os"

	"github.com/joho/godotenv"
)

// SlotGroup maps a metadata kind value to a display label, in display order.
// Kinds not listed here sort after every configured slot.
type SlotGroup struct {
	Kind  int    `json:"kind"`
	Label string `json:"label"`
}

// Config holds application settings (in-memory representation).
// Persisted UI preferences are handled by internal/db.
type Config struct {
	MetaURL string `json:"meta_url"`
	DataURL string `json:"data_url"`

	// Ingest window, JST date strings "YYYY-MM-DD". Empty means unbounded.
	// DateFrom is inclusive; DateTo includes the whole named day.
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`

	Port int `json:"port"`

	DefaultSeriesKey   string `json:"default_series_key"`
	DefaultGranularity string `json:"default_granularity"`

	SlotGroups []SlotGroup `json:"slot_groups"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Port:               13380,
		DefaultSeriesKey:   "0_10",
		DefaultGranularity: "1d",
		DateFrom:           "2026-02-23",
		SlotGroups: []SlotGroup{
			{Kind: 50, Label: "頭"},
			{Kind: 9, Label: "武器"},
			{Kind: 61, Label: "盾"},
			{Kind: 62, Label: "肩"},
			{Kind: 60, Label: "鎧"},
			{Kind: 63, Label: "靴"},
		},
	}
}

// Load builds a Config from defaults plus environment overrides.
// A .env file in the working directory is honored when present.
func Load() *Config {
	godotenv.Load()

	cfg := Default()
	cfg.MetaURL = getEnv("REFINE_META_URL", cfg.MetaURL)
	cfg.DataURL = getEnv("REFINE_DATA_URL", cfg.DataURL)
	cfg.DateFrom = getEnv("REFINE_DATE_FROM", cfg.DateFrom)
	cfg.DateTo = getEnv("REFINE_DATE_TO", cfg.DateTo)
	cfg.DefaultSeriesKey = getEnv("REFINE_DEFAULT_SERIES", cfg.DefaultSeriesKey)
	cfg.DefaultGranularity = getEnv("REFINE_DEFAULT_AGG", cfg.DefaultGranularity)
	return cfg
}

// SlotOrder returns the display index for a kind, or -1 when unconfigured.
func (c *Config) SlotOrder(kind int) int {
	for i, g := range c.SlotGroups {
		if g.Kind == kind {
			return i
		}
	}
	return -1
}

// SlotLabel returns the display label for a kind, or "" when unconfigured.
func (c *Config) SlotLabel(kind int) string {
	for _, g := range c.SlotGroups {
		if g.Kind == kind {
			return g.Label
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
