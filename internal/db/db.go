// Package db provides PostgreSQL access for the job record store.
//
// The store is the sole owner of persisted job records: the sync engine
// is the only writer, the listing and facet paths only read. Records are
// keyed naturally by (board_name, gh_id) and replaced wholesale per board
// on each sync.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id bigserial PRIMARY KEY,
			board_name text NOT NULL,
			gh_id bigint NOT NULL,
			internal_job_id bigint,
			requisition_id text,
			absolute_url text,
			title text NOT NULL,
			location text NOT NULL DEFAULT '',
			location_city text NOT NULL DEFAULT '',
			location_state text NOT NULL DEFAULT '',
			location_country text NOT NULL DEFAULT '',
			employment_type text NOT NULL DEFAULT '',
			content text NOT NULL DEFAULT '',
			metadata jsonb,
			departments jsonb,
			offices jsonb,
			updated_at timestamptz NOT NULL DEFAULT NOW(),
			UNIQUE (board_name, gh_id)
		)`,
		`CREATE INDEX IF NOT EXISTS jobs_board_name_idx ON jobs (board_name)`,
		`CREATE INDEX IF NOT EXISTS jobs_title_idx ON jobs (title)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id uuid PRIMARY KEY,
			gh_id bigint NOT NULL,
			board_name text NOT NULL,
			first_name text NOT NULL,
			last_name text NOT NULL,
			email text NOT NULL,
			phone text NOT NULL DEFAULT '',
			resume_path text NOT NULL,
			cover_letter text NOT NULL DEFAULT '',
			linkedin text NOT NULL DEFAULT '',
			applied_at timestamptz NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key text PRIMARY KEY,
			value text NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
