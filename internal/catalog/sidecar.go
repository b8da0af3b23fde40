package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// SidecarStatus mirrors spec §3's Sidecar.status enum.
type SidecarStatus string

const (
	SidecarPending SidecarStatus = "pending"
	SidecarReady   SidecarStatus = "ready"
	SidecarFailed  SidecarStatus = "failed"
)

// Sidecar is an out-of-band derived artifact for a ContentIdentity.
type Sidecar struct {
	ID          int64
	ContentUUID string
	Kind        string
	Variant     string
	Format      string
	Path        string
	Size        int64
	Checksum    string
	Status      SidecarStatus
	CreatedAt   time.Time
}

type SidecarRepo struct{ db *sql.DB }

func NewSidecarRepo(s *Store) *SidecarRepo { return &SidecarRepo{db: s.db} }

func (r *SidecarRepo) Create(ctx context.Context, s *Sidecar) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sidecars (content_uuid, kind, variant, format, path, size, checksum, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ContentUUID, s.Kind, s.Variant, s.Format, s.Path, s.Size, s.Checksum, string(s.Status), time.Now().UnixNano())
	if err != nil {
		return 0, errs.TransientIO(err, "catalog: inserting sidecar")
	}
	return res.LastInsertId()
}

func (r *SidecarRepo) SetStatus(ctx context.Context, id int64, status SidecarStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sidecars SET status = ? WHERE id = ?`, string(status), id)
	return errs.TransientIO(err, "catalog: setting sidecar status")
}

// SetAvailability records whether deviceID currently holds the sidecar's
// bytes, independent of the sidecar's own lifecycle (spec §3: "sidecars
// can be evicted independently of the ContentIdentity; availability
// records reflect that").
func (r *SidecarRepo) SetAvailability(ctx context.Context, sidecarID int64, deviceID string, available bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sidecar_availability (sidecar_id, device_id, available, checked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(sidecar_id, device_id) DO UPDATE SET available = excluded.available, checked_at = excluded.checked_at`,
		sidecarID, deviceID, boolInt(available), time.Now().UnixNano())
	return errs.TransientIO(err, "catalog: setting sidecar availability")
}

func (r *SidecarRepo) ListForContent(ctx context.Context, contentUUID string) ([]Sidecar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content_uuid, kind, variant, format, path, size, checksum, status, created_at
		FROM sidecars WHERE content_uuid = ?`, contentUUID)
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: listing sidecars")
	}
	defer rows.Close()

	var out []Sidecar
	for rows.Next() {
		var (
			s         Sidecar
			status    string
			createdAt int64
		)
		if err := rows.Scan(&s.ID, &s.ContentUUID, &s.Kind, &s.Variant, &s.Format, &s.Path, &s.Size, &s.Checksum, &status, &createdAt); err != nil {
			return nil, errs.TransientIO(err, "catalog: scanning sidecar row")
		}
		s.Status = SidecarStatus(status)
		s.CreatedAt = time.Unix(0, createdAt)
		out = append(out, s)
	}
	return out, errs.TransientIO(rows.Err(), "catalog: iterating sidecar rows")
}

// GCUnreferencedContent removes ContentIdentity rows no Entry references
// and that are older than gracePeriod, matching spec §3's "a GC sweep
// removes unreferenced ones after a grace period" lifecycle rule. Returns
// the number of rows removed.
func (r *SidecarRepo) GCUnreferencedContent(ctx context.Context, gracePeriod time.Duration) (int64, error) {
	cutoff := time.Now().Add(-gracePeriod).UnixNano()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM content_identities
		WHERE created_at < ?
		AND id NOT IN (SELECT content_id FROM entries WHERE content_id IS NOT NULL)`, cutoff)
	if err != nil {
		return 0, errs.TransientIO(err, "catalog: gc unreferenced content")
	}

	n, err := res.RowsAffected()
	return n, errs.TransientIO(err, "catalog: reading gc rows affected")
}
