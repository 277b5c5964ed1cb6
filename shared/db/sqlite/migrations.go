package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dfryer1193/namestofaces/shared/db"
)

type migration struct {
	version int
	name    string
	up      string
}

// migrations must stay ordered by version; applied ones are never re-run
var migrations = []migration{
	{
		version: 1,
		name:    "create_preferences_table",
		up: `
			CREATE TABLE IF NOT EXISTS preferences (
				key TEXT PRIMARY KEY,
				value BLOB NOT NULL,
				updated_at TIMESTAMP NOT NULL
			);
		`,
	},
}

func runMigrations(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if err := applyMigration(conn, m); err != nil {
			return err
		}
	}

	return nil
}

// applyMigration runs the migration and records it in one transaction
func applyMigration(conn *sql.DB, m migration) error {
	return db.RunInTransaction(context.Background(), conn, func(ctx context.Context) error {
		executor := db.GetExecutor(ctx, conn)

		if _, err := executor.ExecContext(ctx, m.up); err != nil {
			return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
		}

		_, err := executor.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		return nil
	})
}
