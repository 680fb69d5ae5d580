package postgres

import (
	"context"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE REWARD JOURNAL
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create reward journal table
-- Version: 001

CREATE TABLE IF NOT EXISTS reward_journal (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    lesson_id VARCHAR(100) NOT NULL,
    xp_gained INTEGER NOT NULL DEFAULT 0,
    coins_gained INTEGER NOT NULL DEFAULT 0,
    leveled_up BOOLEAN NOT NULL DEFAULT FALSE,
    achievements TEXT[] NOT NULL DEFAULT '{}',
    challenge_completed BOOLEAN NOT NULL DEFAULT FALSE,
    applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp_gained CHECK (xp_gained >= 0),
    CONSTRAINT valid_coins_gained CHECK (coins_gained >= 0)
);

CREATE INDEX IF NOT EXISTS idx_reward_journal_user ON reward_journal(user_id);
CREATE INDEX IF NOT EXISTS idx_reward_journal_applied_at ON reward_journal(applied_at DESC);
CREATE INDEX IF NOT EXISTS idx_reward_journal_user_date ON reward_journal(user_id, applied_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS reward_journal;
`

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_reward_journal", UpSQL: migration001Up, DownSQL: migration001Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migrator applies embedded migrations, tracking them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if needed.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns versions already applied.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations in version order.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, isApplied := applied[mig.Version]; isApplied {
			continue
		}
		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		if _, err := m.conn.Exec(ctx, mig.UpSQL); err != nil {
			return fmt.Errorf("%w: migration %d (%s): %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}

		record := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
		if _, err := m.conn.Exec(ctx, record, mig.Version, mig.Name); err != nil {
			return fmt.Errorf("%w: failed to record migration %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}
	return nil
}
