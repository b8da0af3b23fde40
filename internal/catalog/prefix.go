package catalog

import (
	"context"
	"database/sql"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// PrefixRepo resolves the normalized (device_id, prefix) rows that factor
// common path roots out of every Entry row (spec §3's PathPrefix).
type PrefixRepo struct{ db *sql.DB }

func NewPrefixRepo(s *Store) *PrefixRepo { return &PrefixRepo{db: s.db} }

// EnsureID returns the id of the (deviceID, prefix) row, inserting it if
// absent.
func (r *PrefixRepo) EnsureID(ctx context.Context, deviceID, prefix string) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO path_prefixes (device_id, prefix) VALUES (?, ?)`, deviceID, prefix); err != nil {
		return 0, errs.TransientIO(err, "catalog: inserting path prefix")
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM path_prefixes WHERE device_id = ? AND prefix = ?`, deviceID, prefix).Scan(&id)
	if err != nil {
		return 0, errs.TransientIO(err, "catalog: resolving path prefix id")
	}

	return id, nil
}
