package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// Device is a paired peer participating in a library's sync mesh.
type Device struct {
	ID         string
	LibraryID  string
	Name       string
	PublicKey  []byte
	IsLocal    bool
	LastSeenAt *time.Time
	CreatedAt  time.Time
}

type DeviceRepo struct{ db *sql.DB }

func NewDeviceRepo(s *Store) *DeviceRepo { return &DeviceRepo{db: s.db} }

func (r *DeviceRepo) Create(ctx context.Context, d *Device) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (id, library_id, name, public_key, is_local, last_seen_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.LibraryID, d.Name, d.PublicKey, boolInt(d.IsLocal), nullTime(d.LastSeenAt), time.Now().UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return errs.Conflict(fmt.Sprintf("catalog: device with this public key already paired to library %s", d.LibraryID))
		}
		return errs.TransientIO(err, "catalog: creating device")
	}
	return nil
}

func (r *DeviceRepo) Get(ctx context.Context, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, library_id, name, public_key, is_local, last_seen_at, created_at
		FROM devices WHERE id = ?`, id)
	return scanDevice(row)
}

func (r *DeviceRepo) List(ctx context.Context, libraryID string) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, library_id, name, public_key, is_local, last_seen_at, created_at
		FROM devices WHERE library_id = ? ORDER BY name`, libraryID)
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: listing devices")
	}
	defer rows.Close()

	var out []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, errs.TransientIO(rows.Err(), "catalog: iterating device rows")
}

func (r *DeviceRepo) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE devices SET last_seen_at = ? WHERE id = ?`, at.UnixNano(), id)
	return errs.TransientIO(err, "catalog: touching device last_seen_at")
}

// Tombstone marks a device removed without deleting its historical rows
// (resolves the Open Question on tombstone sufficiency — see DESIGN.md).
func (r *DeviceRepo) Tombstone(ctx context.Context, id, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_state_tombstones (device_id, removed_at, reason) VALUES (?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET removed_at = excluded.removed_at, reason = excluded.reason`,
		id, time.Now().UnixNano(), reason)
	return errs.TransientIO(err, "catalog: tombstoning device")
}

func (r *DeviceRepo) IsTombstoned(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM device_state_tombstones WHERE device_id = ?`, id).Scan(&count)
	if err != nil {
		return false, errs.TransientIO(err, "catalog: checking device tombstone")
	}
	return count > 0, nil
}

func scanDevice(row scanner) (*Device, error) {
	var (
		d          Device
		isLocal    int
		lastSeenAt sql.NullInt64
		createdAt  int64
	)

	err := row.Scan(&d.ID, &d.LibraryID, &d.Name, &d.PublicKey, &isLocal, &lastSeenAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("catalog: device not found")
	}
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: scanning device")
	}

	d.IsLocal = isLocal != 0
	d.CreatedAt = time.Unix(0, createdAt)
	if lastSeenAt.Valid {
		t := time.Unix(0, lastSeenAt.Int64)
		d.LastSeenAt = &t
	}

	return &d, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
