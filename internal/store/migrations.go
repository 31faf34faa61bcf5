package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CurrentSchemaVersion tracks the database schema version
const CurrentSchemaVersion = "1.0.0"

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Indexed source files
CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    language TEXT,
    total_lines INTEGER DEFAULT 0,
    symbol_count INTEGER DEFAULT 0,
    indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);

-- Symbol metadata, keyed by the dense embedding id shared with the
-- vector store and text index
CREATE TABLE IF NOT EXISTS symbols (
    embedding_id INTEGER PRIMARY KEY,
    file_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,
    parent_class TEXT,
    docstring TEXT,
    code TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
`

const migrationV1Down = `
DROP TABLE IF EXISTS symbols;
DROP TABLE IF EXISTS files;
DROP TABLE IF EXISTS schema_version;
`

// ApplyMigrations runs all pending migrations in version order
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	var currentVersion *semver.Version
	switch {
	case err == sql.ErrNoRows:
		currentVersion = semver.MustParse("0.0.0")
	case err != nil:
		return fmt.Errorf("failed to check schema_version table: %w", err)
	default:
		var currentVersionStr string
		err = db.QueryRowContext(ctx,
			"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersionStr)
		if err == sql.ErrNoRows || currentVersionStr == "" {
			currentVersion = semver.MustParse("0.0.0")
		} else if err != nil {
			return fmt.Errorf("failed to read schema_version: %w", err)
		} else {
			currentVersion, err = semver.NewVersion(currentVersionStr)
			if err != nil {
				return fmt.Errorf("invalid current schema version %s: %w", currentVersionStr, err)
			}
		}
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !currentVersion.LessThan(migrationVersion) {
			continue // already applied
		}

		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		currentVersion = migrationVersion
	}

	return nil
}
