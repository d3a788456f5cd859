package db

import "time"

// CustomItems returns the saved custom item selection in insertion order.
func (d *DB) CustomItems() []string {
	rows, err := d.sql.Query("SELECT item_id FROM custom_items ORDER BY added_at, item_id")
	if err != nil {
		return nil
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil {
			items = append(items, id)
		}
	}
	return items
}

// AddCustomItem saves one item id. Adding an already-saved id is a no-op.
func (d *DB) AddCustomItem(itemID string) error {
	_, err := d.sql.Exec(
		"INSERT OR IGNORE INTO custom_items (item_id, added_at) VALUES (?, ?)",
		itemID, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// RemoveCustomItem removes one item id from the saved selection.
func (d *DB) RemoveCustomItem(itemID string) error {
	_, err := d.sql.Exec("DELETE FROM custom_items WHERE item_id = ?", itemID)
	return err
}

// HasCustomItem reports whether an item id is in the saved selection.
func (d *DB) HasCustomItem(itemID string) bool {
	var n int
	d.sql.QueryRow("SELECT COUNT(*) FROM custom_items WHERE item_id = ?", itemID).Scan(&n)
	return n > 0
}
