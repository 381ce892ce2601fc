package db

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	up      string
}

// The schema sticks to the SQL shared by PostgreSQL and SQLite.
var migrations = []migration{
	{
		version: 1,
		name:    "create_posts_table",
		up: `
			CREATE TABLE IF NOT EXISTS posts (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				slug TEXT NOT NULL,
				excerpt TEXT NOT NULL DEFAULT '',
				content TEXT NOT NULL,
				categories TEXT NOT NULL DEFAULT '[]',
				pub_date TIMESTAMP NOT NULL,
				last_modified TIMESTAMP NOT NULL,
				is_published BOOLEAN NOT NULL DEFAULT FALSE
			);

			CREATE INDEX IF NOT EXISTS idx_posts_pub_date ON posts(pub_date DESC);
		`,
	},
	{
		version: 2,
		name:    "create_attachments_table",
		up: `
			CREATE TABLE IF NOT EXISTS attachments (
				path TEXT PRIMARY KEY,
				hash TEXT NOT NULL,
				size BIGINT NOT NULL,
				created_at TIMESTAMP NOT NULL
			);
		`,
	},
}

// Migrate applies every migration newer than the recorded schema version.
func Migrate(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	current := 0
	err = conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)
	if err != nil {
		return fmt.Errorf("get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := RunInTransaction(ctx, conn, func(txCtx context.Context) error {
			exec := GetExecutor(txCtx, conn)
			if _, err := exec.ExecContext(txCtx, m.up); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
			if _, err := exec.ExecContext(txCtx,
				"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
				m.version, m.name,
			); err != nil {
				return fmt.Errorf("record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
