package catalog

import (
	"database/sql"
	"context"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// Label is a flat, content-scoped classification (spec §5 supplement),
// distinct from Tag: labels attach directly to a ContentIdentity rather
// than through UserMetadata, intended for machine-assigned categories
// (e.g. a future ML classifier) rather than user-curated hierarchies.
type Label struct {
	ID        int64
	LibraryID string
	Name      string
	CreatedAt time.Time
}

type LabelRepo struct{ db *sql.DB }

func NewLabelRepo(s *Store) *LabelRepo { return &LabelRepo{db: s.db} }

func (r *LabelRepo) EnsureID(ctx context.Context, libraryID, name string) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO labels (library_id, name, created_at) VALUES (?, ?, ?)`,
		libraryID, name, time.Now().UnixNano()); err != nil {
		return 0, errs.TransientIO(err, "catalog: inserting label")
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM labels WHERE library_id = ? AND name = ?`, libraryID, name).Scan(&id)
	return id, errs.TransientIO(err, "catalog: resolving label id")
}

func (r *LabelRepo) Apply(ctx context.Context, labelID, contentID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO label_applications (label_id, content_id) VALUES (?, ?)`, labelID, contentID)
	return errs.TransientIO(err, "catalog: applying label")
}

func (r *LabelRepo) ContentIDsForLabel(ctx context.Context, labelID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT content_id FROM label_applications WHERE label_id = ?`, labelID)
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: querying label applications")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errs.TransientIO(err, "catalog: scanning label application")
		}
		out = append(out, id)
	}
	return out, errs.TransientIO(rows.Err(), "catalog: iterating label applications")
}
