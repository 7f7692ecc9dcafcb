package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed scripts/initdb.sql
var initdbSQL string

const schemaVersion = 1

// EnsureBootstrapped applies the schema on first run and verifies the
// recorded version on every subsequent start.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {
	var exists bool
	const probe = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_name = 'xposiguide_meta'
		)
	`
	if err := db.QueryRowContext(ctx, probe).Scan(&exists); err != nil {
		return fmt.Errorf("probe meta table: %w", err)
	}

	if !exists {
		if _, err := db.ExecContext(ctx, initdbSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		const record = `INSERT INTO xposiguide_meta (schema_version) VALUES ($1)`
		if _, err := db.ExecContext(ctx, record, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	const q = `SELECT schema_version FROM xposiguide_meta ORDER BY applied_at DESC LIMIT 1`
	if err := db.QueryRowContext(ctx, q).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("schema version mismatch: have %d, want %d", version, schemaVersion)
	}
	return nil
}
