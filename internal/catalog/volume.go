package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// Volume is a detected storage device, identified by the stable fingerprint
// content.VolumeFingerprint produces (spec §3).
type Volume struct {
	ID             string
	LibraryID      string
	DeviceID       string
	Fingerprint    string
	Name           string
	MountPoint     string
	TotalBytes     int64
	AvailableBytes int64
	IsRemovable    bool
	ReadSpeedBPS   *int64
	WriteSpeedBPS  *int64
	SpeedTestedAt  *time.Time
}

type VolumeRepo struct{ db *sql.DB }

func NewVolumeRepo(s *Store) *VolumeRepo { return &VolumeRepo{db: s.db} }

// Upsert inserts or updates a volume keyed by (library_id, fingerprint),
// the way a removable drive is re-recognized across reattaches.
func (r *VolumeRepo) Upsert(ctx context.Context, v *Volume) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO volumes (id, library_id, device_id, fingerprint, name, mount_point,
			total_bytes, available_bytes, is_removable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(library_id, fingerprint) DO UPDATE SET
			name = excluded.name, mount_point = excluded.mount_point,
			total_bytes = excluded.total_bytes, available_bytes = excluded.available_bytes`,
		v.ID, v.LibraryID, v.DeviceID, v.Fingerprint, v.Name, v.MountPoint,
		v.TotalBytes, v.AvailableBytes, boolInt(v.IsRemovable))
	return errs.TransientIO(err, "catalog: upserting volume")
}

// RecordSpeedTest stores the result of the copy planner's volume speed
// test (spec §3's "carries read/write speed benchmarks used by the copy
// planner").
func (r *VolumeRepo) RecordSpeedTest(ctx context.Context, id string, readBPS, writeBPS int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE volumes SET read_speed_bps = ?, write_speed_bps = ?, speed_tested_at = ? WHERE id = ?`,
		readBPS, writeBPS, at.UnixNano(), id)
	return errs.TransientIO(err, "catalog: recording volume speed test")
}

// List returns every volume known to libraryID, the set the speed-test
// maintenance job sweeps periodically.
func (r *VolumeRepo) List(ctx context.Context, libraryID string) ([]Volume, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, library_id, device_id, fingerprint, name, mount_point,
			total_bytes, available_bytes, is_removable, read_speed_bps, write_speed_bps, speed_tested_at
		FROM volumes WHERE library_id = ?`, libraryID)
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: listing volumes")
	}
	defer rows.Close()

	var out []Volume
	for rows.Next() {
		v, err := scanVolume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, errs.TransientIO(rows.Err(), "catalog: iterating volumes")
}

func (r *VolumeRepo) FindByFingerprint(ctx context.Context, libraryID, fingerprint string) (*Volume, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, library_id, device_id, fingerprint, name, mount_point,
			total_bytes, available_bytes, is_removable, read_speed_bps, write_speed_bps, speed_tested_at
		FROM volumes WHERE library_id = ? AND fingerprint = ?`, libraryID, fingerprint)
	return scanVolume(row)
}

func scanVolume(row scanner) (*Volume, error) {
	var (
		v             Volume
		isRemovable   int
		readSpeed     sql.NullInt64
		writeSpeed    sql.NullInt64
		speedTestedAt sql.NullInt64
	)

	err := row.Scan(&v.ID, &v.LibraryID, &v.DeviceID, &v.Fingerprint, &v.Name, &v.MountPoint,
		&v.TotalBytes, &v.AvailableBytes, &isRemovable, &readSpeed, &writeSpeed, &speedTestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("catalog: no volume with that fingerprint")
	}
	if err != nil {
		return nil, errs.TransientIO(err, "catalog: scanning volume")
	}

	v.IsRemovable = isRemovable != 0
	if readSpeed.Valid {
		v.ReadSpeedBPS = &readSpeed.Int64
	}
	if writeSpeed.Valid {
		v.WriteSpeedBPS = &writeSpeed.Int64
	}
	if speedTestedAt.Valid {
		t := time.Unix(0, speedTestedAt.Int64)
		v.SpeedTestedAt = &t
	}

	return &v, nil
}
