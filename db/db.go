// Package db provides the catalog index connection helpers and schema
// migration. The index is optional: the media directory stays the source of
// truth, and the service runs fully without a database.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
)

// Connect opens a Postgres connection for the catalog index.
func Connect(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty catalog DSN")
	}
	return sql.Open("pgx", dsn)
}

// Migrate applies idempotent schema changes for the catalog index. It is the
// embedded fallback for deployments without the versioned migration files.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clips (
			basename TEXT PRIMARY KEY,
			author TEXT NOT NULL,
			title TEXT NOT NULL,
			owner_hash TEXT NOT NULL,
			parent TEXT,
			date TIMESTAMPTZ NOT NULL,
			has_mp3 BOOLEAN DEFAULT FALSE,
			seen_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clips_date ON clips(date)`,
		`CREATE INDEX IF NOT EXISTS idx_clips_author ON clips(author)`,
		`CREATE INDEX IF NOT EXISTS idx_clips_parent ON clips(parent)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("catalog migrate step %d failed: %w", i, err)
		}
	}
	return nil
}
