// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS deal_records (
	source_label TEXT NOT NULL,
	deal_id TEXT NOT NULL,
	entity_id TEXT,
	entity_name TEXT,
	contact_email TEXT,
	amount REAL NOT NULL DEFAULT 0,
	pipeline TEXT NOT NULL,
	close_date DATETIME,
	last_modified DATETIME NOT NULL,
	owner_id TEXT,
	deal_name TEXT,
	imported_at DATETIME NOT NULL,
	PRIMARY KEY (source_label, deal_id)
);

CREATE INDEX IF NOT EXISTS idx_deal_records_pipeline ON deal_records(pipeline);
CREATE INDEX IF NOT EXISTS idx_deal_records_entity_name ON deal_records(entity_name);

CREATE TABLE IF NOT EXISTS team_members (
	owner_id TEXT NOT NULL,
	team TEXT NOT NULL,
	added_at DATETIME NOT NULL,
	PRIMARY KEY (owner_id, team)
);

CREATE TABLE IF NOT EXISTS report_exclusions (
	entity_name TEXT PRIMARY KEY,
	added_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS report_settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT NOT NULL DEFAULT 'idle',
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL,
	source_service TEXT NOT NULL,
	source_label TEXT NOT NULL,
	records_imported INTEGER NOT NULL,
	imported_at DATETIME NOT NULL,
	metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_sync_log_batch ON sync_log(batch_id);
`

// Team labels for team_members rows.
const (
	TeamSales = "sales"
	TeamCS    = "cs"
)

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
