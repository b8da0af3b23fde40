package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// Library is the logical user container spec §3 describes: a name, a
// filesystem path holding library.db and sidecar storage, and settings as
// opaque JSON (the settings schema belongs to internal/library, not here).
type Library struct {
	ID          string
	Name        string
	Description string
	Path        string
	Settings    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type LibraryRepo struct{ db *sql.DB }

func NewLibraryRepo(s *Store) *LibraryRepo { return &LibraryRepo{db: s.db} }

func (r *LibraryRepo) Create(ctx context.Context, l *Library) error {
	now := time.Now().UnixNano()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO libraries (id, name, description, path, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Description, l.Path, l.Settings, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.Conflict(fmt.Sprintf("catalog: library %s already exists", l.ID))
		}
		return errs.TransientIO(err, "catalog: creating library")
	}
	return nil
}

func (r *LibraryRepo) Rename(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE libraries SET name = ?, updated_at = ? WHERE id = ?`, name, time.Now().UnixNano(), id)
	if err != nil {
		return errs.TransientIO(err, "catalog: renaming library")
	}
	return requireAffected(res, fmt.Sprintf("catalog: no library %s", id))
}

func (r *LibraryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM libraries WHERE id = ?`, id)
	return errs.TransientIO(err, "catalog: deleting library")
}

func (r *LibraryRepo) Get(ctx context.Context, id string) (*Library, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, path, settings, created_at, updated_at
		FROM libraries WHERE id = ?`, id)

	var l Library
	var createdAt, updatedAt int64
	err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Path, &l.Settings, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound(fmt.Sprintf("catalog: no library %s", id))
	}
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: scanning library")
	}

	l.CreatedAt = time.Unix(0, createdAt)
	l.UpdatedAt = time.Unix(0, updatedAt)

	return &l, nil
}

func (r *LibraryRepo) List(ctx context.Context) ([]Library, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, path, settings, created_at, updated_at FROM libraries ORDER BY name`)
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: listing libraries")
	}
	defer rows.Close()

	var out []Library
	for rows.Next() {
		var l Library
		var createdAt, updatedAt int64
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Path, &l.Settings, &createdAt, &updatedAt); err != nil {
			return nil, errs.TransientIO(err, "catalog: scanning library row")
		}
		l.CreatedAt = time.Unix(0, createdAt)
		l.UpdatedAt = time.Unix(0, updatedAt)
		out = append(out, l)
	}
	return out, errs.TransientIO(rows.Err(), "catalog: iterating library rows")
}

func requireAffected(res sql.Result, notFoundMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errs.TransientIO(err, "catalog: reading rows affected")
	}
	if n == 0 {
		return errs.NotFound(notFoundMsg)
	}
	return nil
}
