// Package catalog implements the L1 catalog store: durable, transactional
// persistence for entries, content identities, sidecars, tags, labels,
// volumes, locations, devices, and libraries, behind a small typed
// repository API. Grounded on the teacher's raw-SQL-over-modernc.org/sqlite
// repository pattern (see internal/sync/ledger.go), generalized from a
// single action_queue table to the full catalog schema.
package catalog

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

// Store wraps a *sql.DB holding one library's catalog.db, opened with
// SetMaxOpenConns(1) — SQLite serializes writers anyway, and the teacher's
// ledger/baseline split already established the sole-writer pattern this
// store follows for every table, not just one.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if absent) the SQLite database at path and applies
// every pending migration.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying *sql.DB for repositories in this package that
// need it directly; never exported outside internal/catalog.
func (s *Store) DB() *sql.DB { return s.db }

func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("catalog: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("catalog: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("catalog: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("catalog: applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}
