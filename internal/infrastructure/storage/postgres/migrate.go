package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"

	"billing/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationLockKey serializes concurrent Migrate calls from several replicas.
const migrationLockKey = "billing.schema_migrations"

// Migrate applies embedded migrations that have not run yet, each in its own transaction.
func Migrate(ctx context.Context, txm *TxManager) error {
	if _, err := txm.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		applied := false
		err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := txm.AdvisoryLock(ctx, migrationLockKey); err != nil {
				return err
			}

			q := txm.GetQuerier(ctx)
			var one int
			err := q.QueryRow(ctx, "SELECT 1 FROM schema_migrations WHERE version = $1", name).Scan(&one)
			if err == nil {
				return nil
			}
			if err != pgx.ErrNoRows {
				return fmt.Errorf("check migration: %w", err)
			}

			if _, err := q.Exec(ctx, string(body)); err != nil {
				return fmt.Errorf("apply: %w", err)
			}
			if _, err := q.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
				return fmt.Errorf("record: %w", err)
			}
			applied = true
			return nil
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if applied {
			logger.Info(ctx, "migration applied", "version", name)
		}
	}
	return nil
}
