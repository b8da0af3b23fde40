// Package syncengine implements L6, spec §4.6's leaderless CRDT sync
// engine: a per-library append-only SyncLog stamped with hybrid logical
// clocks, per-peer watermarks, a dependency-ordered model registry with no
// central apply switch, resumable backfill checkpoints, and a severity-
// leveled event log for quarantine/retry-exhaustion review
// (original_source/core/src/infra/sync/*).
//
// Grounded on the teacher's internal/sync package: ledger.go's
// append-only-log-with-sequence-numbers shape becomes sync_log,
// reconciler.go's dependency-aware apply ordering becomes registry.go's
// topological sort, planner.go's batch-then-commit-then-advance-cursor loop
// becomes the Applier.
package syncengine

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the sync-schema *sql.DB handle. Per SPEC_FULL.md's dep
// wiring table, this is a second connection onto the SAME library.db file
// catalog.Store opens — one physical file, two logical schemas — rather
// than a second file, matching spec.md §6's single-file-per-library
// invariant while keeping the catalog and sync schemas' migrations
// independently versioned.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("syncengine: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("syncengine: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("syncengine: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("syncengine: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("syncengine: applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}
