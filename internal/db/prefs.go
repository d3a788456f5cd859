package db

// Preference keys.
const (
	PrefGranularity = "granularity"
	PrefCustomMode  = "custom_mode"
)

// GetPref reads one preference, returning def when unset.
func (d *DB) GetPref(key, def string) string {
	var value string
	if err := d.sql.QueryRow("SELECT value FROM prefs WHERE key = ?", key).Scan(&value); err != nil {
		return def
	}
	return value
}

// SetPref writes one preference.
func (d *DB) SetPref(key, value string) error {
	_, err := d.sql.Exec(
		"INSERT INTO prefs (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
