package syncengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// WatermarkRepo tracks, per paired peer, the highest HLC this device has
// acknowledged from each originator — spec §4.6's PeerWatermark.
type WatermarkRepo struct{ db *sql.DB }

func NewWatermarkRepo(store *Store) *WatermarkRepo { return &WatermarkRepo{db: store.db} }

// Get returns the watermark this device holds for changes originated by
// originator, as acknowledged on behalf of peer. A never-seen pair returns
// the zero HLC, meaning "replicate everything."
func (r *WatermarkRepo) Get(ctx context.Context, peer, originator string) (wire.HLC, error) {
	var hlc wire.HLC
	err := r.db.QueryRowContext(ctx, `
		SELECT physical_ms, counter FROM peer_watermarks
		WHERE peer_device = ? AND originator_device = ?`, peer, originator).
		Scan(&hlc.PhysicalMs, &hlc.Counter)
	if errors.Is(err, sql.ErrNoRows) {
		return wire.HLC{}, nil
	}
	if err != nil {
		return wire.HLC{}, errs.TransientIO(err, "syncengine: reading peer watermark")
	}
	hlc.DeviceUUID = originator
	return hlc, nil
}

// All returns every originator-keyed watermark this device holds on
// behalf of peer, for building a SyncRequest's per_peer_watermarks map.
func (r *WatermarkRepo) All(ctx context.Context, peer string) ([]wire.Watermark, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT originator_device, physical_ms, counter FROM peer_watermarks WHERE peer_device = ?`, peer)
	if err != nil {
		return nil, errs.TransientIO(err, "syncengine: reading peer watermarks")
	}
	defer rows.Close()

	var out []wire.Watermark
	for rows.Next() {
		var w wire.Watermark
		if err := rows.Scan(&w.DeviceUUID, &w.HLC.PhysicalMs, &w.HLC.Counter); err != nil {
			return nil, errs.TransientIO(err, "syncengine: scanning peer watermark")
		}
		w.HLC.DeviceUUID = w.DeviceUUID
		out = append(out, w)
	}
	return out, errs.TransientIO(rows.Err(), "syncengine: iterating peer watermarks")
}

// Advance sets peer's watermark for originator to hlc, if hlc is newer
// than what's stored — advancing is monotonic, never regresses on a
// reordered or replayed batch.
func (r *WatermarkRepo) Advance(ctx context.Context, peer, originator string, hlc wire.HLC) error {
	current, err := r.Get(ctx, peer, originator)
	if err != nil {
		return err
	}
	if !current.Before(hlc) {
		return nil
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO peer_watermarks (peer_device, originator_device, physical_ms, counter, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (peer_device, originator_device) DO UPDATE SET
			physical_ms = excluded.physical_ms, counter = excluded.counter, updated_at = excluded.updated_at`,
		peer, originator, hlc.PhysicalMs, hlc.Counter, time.Now().UnixNano())
	return errs.TransientIO(err, "syncengine: advancing peer watermark")
}

// Release drops every watermark held for peer, so Retention's min() no
// longer accounts for an unpaired device (spec §4.6 retention).
func (r *WatermarkRepo) Release(ctx context.Context, peer string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM peer_watermarks WHERE peer_device = ?`, peer)
	return errs.TransientIO(err, "syncengine: releasing peer watermarks")
}
