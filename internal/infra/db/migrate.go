package db

import (
	"context"
	"database/sql"
)

// The schema uses only types and defaults understood by both PostgreSQL
// and SQLite.
const createSourceStatus = `
CREATE TABLE IF NOT EXISTS source_status (
    content_type  TEXT NOT NULL,
    url           TEXT NOT NULL,
    enabled       BOOLEAN NOT NULL DEFAULT TRUE,
    last_success  DOUBLE PRECISION NOT NULL DEFAULT 0,
    failure_count INTEGER NOT NULL DEFAULT 0,
    priority      INTEGER NOT NULL DEFAULT 0,
    parser        TEXT NOT NULL DEFAULT 'default',
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (content_type, url)
)`

// MigrateUp creates the source status schema.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createSourceStatus); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_source_status_enabled ON source_status(content_type, enabled)`,
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown removes the source status schema.
// Use with caution: this deletes every persisted enabled flag.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_source_status_enabled`,
		`DROP TABLE IF EXISTS source_status`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
