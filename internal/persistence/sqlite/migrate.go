package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migrationStep is one versioned schema change. Steps are applied in slice
// order inside a single transaction per step and recorded in
// schema_migrations, so reruns are no-ops.
type migrationStep struct {
	Version     string
	Description string
	Statements  []string
}

var migrations = []migrationStep{
	{
		Version:     "001",
		Description: "create calendar_events",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS calendar_events (
				id TEXT PRIMARY KEY,
				calendar_id TEXT NOT NULL,
				title TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				all_day INTEGER NOT NULL DEFAULT 0,
				source_type TEXT NOT NULL DEFAULT 'event',
				read_only INTEGER NOT NULL DEFAULT 0,
				recurrence_type TEXT NOT NULL DEFAULT 'none',
				recurrence_interval INTEGER NOT NULL DEFAULT 1,
				recurrence_days TEXT NOT NULL DEFAULT '',
				recurrence_end TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (start_time < end_time)
			)`,
		},
	},
	{
		Version:     "002",
		Description: "index calendar_events by calendar and window",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_calendar_events_calendar
				ON calendar_events (calendar_id, start_time)`,
			`CREATE INDEX IF NOT EXISTS idx_calendar_events_window
				ON calendar_events (start_time, end_time)`,
		},
	},
}

// Migrate brings the schema up to date, creating the version tracking table on
// first run.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	applied, err := appliedVersions(ctx, pool.DB())
	if err != nil {
		return err
	}

	for _, step := range migrations {
		if _, ok := applied[step.Version]; ok {
			continue
		}
		if err := applyStep(ctx, pool, step); err != nil {
			return fmt.Errorf("migration %s (%s): %w", step.Version, step.Description, err)
		}
	}

	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}

func applyStep(ctx context.Context, pool *ConnectionPool, step migrationStep) error {
	return pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range step.Statements {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		_, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			step.Version, step.Description, time.Now().UTC().Format(time.RFC3339),
		)
		return err
	})
}
