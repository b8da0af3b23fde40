package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// UserMetadata is free-form per-entry OR per-content user data (spec §3).
// Entry-scoped metadata takes precedence over content-scoped metadata when
// resolving a given entry's effective metadata (ResolveForEntry implements
// that precedence).
type UserMetadata struct {
	ID           int64
	EntryID      *int64
	ContentID    *int64
	Notes        string
	Favorite     bool
	Hidden       bool
	CustomFields string
}

type MetadataRepo struct{ db *sql.DB }

func NewMetadataRepo(s *Store) *MetadataRepo { return &MetadataRepo{db: s.db} }

func (r *MetadataRepo) UpsertForEntry(ctx context.Context, entryID int64, m *UserMetadata) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_metadata (entry_id, notes, favorite, hidden, custom_fields)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET
			notes = excluded.notes, favorite = excluded.favorite,
			hidden = excluded.hidden, custom_fields = excluded.custom_fields`,
		entryID, m.Notes, boolInt(m.Favorite), boolInt(m.Hidden), m.CustomFields)
	if err != nil {
		return 0, errs.TransientIO(err, "catalog: upserting entry metadata")
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM user_metadata WHERE entry_id = ?`, entryID).Scan(&id)
	return id, errs.TransientIO(err, "catalog: resolving entry metadata id")
}

// ResolveForEntry returns the effective metadata for entryID: the entry's
// own metadata row if one exists, otherwise its content's metadata row,
// implementing spec §3's "entry-scoped metadata takes precedence" rule.
func (r *MetadataRepo) ResolveForEntry(ctx context.Context, entryID int64) (*UserMetadata, error) {
	m, err := r.getByEntry(ctx, entryID)
	if err == nil {
		return m, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	var contentID sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT content_id FROM entries WHERE id = ?`, entryID).Scan(&contentID); err != nil {
		return nil, errs.TransientIO(err, "catalog: resolving entry content_id for metadata fallback")
	}
	if !contentID.Valid {
		return nil, errs.NotFound("catalog: no metadata for entry or its content")
	}

	return r.getByContent(ctx, contentID.Int64)
}

func (r *MetadataRepo) getByEntry(ctx context.Context, entryID int64) (*UserMetadata, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, entry_id, content_id, notes, favorite, hidden, custom_fields
		FROM user_metadata WHERE entry_id = ?`, entryID)
	return scanMetadata(row)
}

func (r *MetadataRepo) getByContent(ctx context.Context, contentID int64) (*UserMetadata, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, entry_id, content_id, notes, favorite, hidden, custom_fields
		FROM user_metadata WHERE content_id = ?`, contentID)
	return scanMetadata(row)
}

func scanMetadata(row scanner) (*UserMetadata, error) {
	var (
		m         UserMetadata
		entryID   sql.NullInt64
		contentID sql.NullInt64
		favorite  int
		hidden    int
	)

	err := row.Scan(&m.ID, &entryID, &contentID, &m.Notes, &favorite, &hidden, &m.CustomFields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("catalog: metadata not found")
	}
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: scanning metadata")
	}

	m.Favorite = favorite != 0
	m.Hidden = hidden != 0
	if entryID.Valid {
		m.EntryID = &entryID.Int64
	}
	if contentID.Valid {
		m.ContentID = &contentID.Int64
	}

	return &m, nil
}

func isNotFound(err error) bool {
	var e *errs.Error
	return errors.As(err, &e) && e.Kind == errs.KindNotFound
}
