package syncengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// BackfillCursor is a resumable (updated_at, uuid) position into one
// syncable model's table, spec §4.6's "Initial backfill" paragraph.
type BackfillCursor struct {
	UpdatedAt int64
	UUID      string
	Completed bool
}

// BackfillRepo persists per-(peer, model) backfill progress so a newly
// paired peer's initial sync survives an interrupted connection instead of
// restarting from scratch.
type BackfillRepo struct{ db *sql.DB }

func NewBackfillRepo(store *Store) *BackfillRepo { return &BackfillRepo{db: store.db} }

func (r *BackfillRepo) Get(ctx context.Context, peer, model string) (BackfillCursor, error) {
	var c BackfillCursor
	var completed int
	err := r.db.QueryRowContext(ctx, `
		SELECT cursor_updated_at, cursor_uuid, completed FROM backfill_checkpoints
		WHERE peer_device = ? AND model_type = ?`, peer, model).
		Scan(&c.UpdatedAt, &c.UUID, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return BackfillCursor{}, nil
	}
	if err != nil {
		return BackfillCursor{}, errs.TransientIO(err, "syncengine: reading backfill checkpoint")
	}
	c.Completed = completed != 0
	return c, nil
}

// Advance persists cursor after a page of model has been successfully
// applied, so a later interruption resumes after this page rather than
// replaying it.
func (r *BackfillRepo) Advance(ctx context.Context, peer, model string, cursor BackfillCursor) error {
	completed := 0
	if cursor.Completed {
		completed = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO backfill_checkpoints (peer_device, model_type, cursor_updated_at, cursor_uuid, completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (peer_device, model_type) DO UPDATE SET
			cursor_updated_at = excluded.cursor_updated_at,
			cursor_uuid = excluded.cursor_uuid,
			completed = excluded.completed,
			updated_at = excluded.updated_at`,
		peer, model, cursor.UpdatedAt, cursor.UUID, completed, time.Now().UnixNano())
	return errs.TransientIO(err, "syncengine: advancing backfill checkpoint")
}
