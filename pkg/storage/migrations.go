package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: usage ledger and budget policy
	`CREATE TABLE IF NOT EXISTS usage_records (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		id             TEXT NOT NULL UNIQUE,
		endpoint       TEXT NOT NULL,
		method         TEXT NOT NULL DEFAULT 'GET',
		estimated_cost REAL NOT NULL DEFAULT 0.0,
		timestamp      TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_usage_endpoint ON usage_records(endpoint);

	CREATE TABLE IF NOT EXISTS budget_policy (
		id          INTEGER PRIMARY KEY CHECK(id = 1),
		daily_limit REAL,
		action      TEXT NOT NULL CHECK(action IN ('block', 'warn', 'confirm')),
		updated_at  TEXT NOT NULL
	);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
