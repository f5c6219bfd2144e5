package db

import (
	"database/sql"
	"fmt"
)

// MigrateUp creates the schema for the given driver if it does not exist.
func MigrateUp(db *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case DriverPostgres:
		statements = postgresSchema
	case DriverSQLite:
		statements = sqliteSchema
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var postgresSchema = []string{
	`
CREATE TABLE IF NOT EXISTS sources (
    id              SERIAL PRIMARY KEY,
    handle          TEXT NOT NULL UNIQUE,
    last_item_id    TEXT,
    last_checked_at TIMESTAMPTZ,
    active          BOOLEAN DEFAULT TRUE
)`,
	`
CREATE TABLE IF NOT EXISTS destinations (
    id          SERIAL PRIMARY KEY,
    source_id   INTEGER REFERENCES sources(id) ON DELETE CASCADE,
    channel_id  TEXT NOT NULL DEFAULT '',
    webhook_url TEXT NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS notification_history (
    id          SERIAL PRIMARY KEY,
    source_id   INTEGER NOT NULL,
    item_id     TEXT NOT NULL,
    url         TEXT NOT NULL DEFAULT '',
    notified_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (source_id, item_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(active) WHERE active = TRUE`,
	`CREATE INDEX IF NOT EXISTS idx_destinations_source_id ON destinations(source_id)`,
	// Prune scans by notified_at once per cycle
	`CREATE INDEX IF NOT EXISTS idx_history_notified_at ON notification_history(notified_at)`,
}

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS sources (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    handle          TEXT NOT NULL UNIQUE,
    last_item_id    TEXT,
    last_checked_at TIMESTAMP,
    active          BOOLEAN DEFAULT TRUE
)`,
	`
CREATE TABLE IF NOT EXISTS destinations (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id   INTEGER REFERENCES sources(id) ON DELETE CASCADE,
    channel_id  TEXT NOT NULL DEFAULT '',
    webhook_url TEXT NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS notification_history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id   INTEGER NOT NULL,
    item_id     TEXT NOT NULL,
    url         TEXT NOT NULL DEFAULT '',
    notified_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (source_id, item_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_destinations_source_id ON destinations(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_history_notified_at ON notification_history(notified_at)`,
}
