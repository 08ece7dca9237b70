// ABOUTME: Journal schema definitions
// ABOUTME: Tables for webhook deliveries and cascade trigger firings
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS deliveries (
	id TEXT PRIMARY KEY,
	received_at DATETIME NOT NULL,
	resource_type TEXT NOT NULL,
	resource_key TEXT NOT NULL,
	action_type TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT
);

CREATE INDEX IF NOT EXISTS idx_deliveries_received ON deliveries(received_at);
CREATE INDEX IF NOT EXISTS idx_deliveries_resource ON deliveries(resource_type, resource_key);

CREATE TABLE IF NOT EXISTS cascade_firings (
	work_item_key TEXT NOT NULL,
	template_key TEXT NOT NULL,
	resulting_work_item_key TEXT,
	resulting_title TEXT,
	status TEXT NOT NULL,
	fired_at DATETIME NOT NULL,
	PRIMARY KEY (work_item_key, template_key)
);
`

// InitSchema creates the journal tables when missing.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
