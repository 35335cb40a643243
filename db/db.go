// Package db provides the optional Postgres lifecycle journal: connection
// helpers, schema migration, and the append-only event writer. The journal
// is audit history only; the lifecycle never reads it back, and registry
// state stays memory-resident.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
)

// Connect opens a Postgres connection for the journal.
func Connect(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty dsn")
	}
	return sql.Open("pgx", dsn)
}

// Migrate applies idempotent schema changes directly. It is the fallback
// path for deployments without the schema_migrations bookkeeping table; new
// deployments use RunMigrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS channel_events (
			id SERIAL PRIMARY KEY,
			event TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			guild_id TEXT,
			owner_id TEXT,
			detail TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_channel_events_channel ON channel_events(channel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_channel_events_created ON channel_events(created_at)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate step %d failed: %w", i, err)
		}
	}
	return nil
}
