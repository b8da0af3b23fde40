package syncengine

import (
	"context"
	"database/sql"

	jsoniter "github.com/json-iterator/go"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

var patchJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodePatch JSON-encodes v (a post-image or a patch document) for
// storage in a SyncLogEntry's data column, via json-iterator rather than
// encoding/json for the patch payload's encode/decode hot path.
func EncodePatch(v any) (wire.RawMessage, error) {
	b, err := patchJSON.Marshal(v)
	if err != nil {
		return nil, errs.Internal(err, "syncengine: encoding patch payload")
	}
	return wire.RawMessage(b), nil
}

// DecodePatch decodes a SyncLogEntry's data column into v.
func DecodePatch(data wire.RawMessage, v any) error {
	if err := patchJSON.Unmarshal(data, v); err != nil {
		return errs.Wrap(errs.KindValidation, err, "syncengine: decoding patch payload")
	}
	return nil
}

// SyncLogRepo persists and queries a library's append-only sync_log.
type SyncLogRepo struct{ db *sql.DB }

func NewSyncLogRepo(store *Store) *SyncLogRepo { return &SyncLogRepo{db: store.db} }

// Append records one change, inside tx if non-nil so a caller threading
// its own catalog transaction through can make the catalog write and the
// log append part of one commit (spec §4.6: "failing to append is a
// transaction abort"). INSERT OR IGNORE on the (originator, physical_ms,
// counter) unique key makes a duplicate append from a retried caller a
// no-op rather than a constraint-violation error.
func (r *SyncLogRepo) Append(ctx context.Context, tx *sql.Tx, entry wire.SyncLogEntry) error {
	exec := queryer(r.db)
	if tx != nil {
		exec = tx
	}
	_, err := exec.ExecContext(ctx, `
		INSERT OR IGNORE INTO sync_log
			(physical_ms, counter, originator_device, model_type, record_uuid, change_type, data, correlation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.HLC.PhysicalMs, entry.HLC.Counter, entry.Originator, entry.Model, entry.UUID, string(entry.Change), []byte(entry.Data), "")
	return errs.TransientIO(err, "syncengine: appending sync log entry")
}

// queryer abstracts *sql.DB/*sql.Tx for Append's optional-transaction call.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Since(ctx, originator, after) returns entries from originator with an
// HLC strictly greater than after, in ascending HLC order, limited to
// limit rows — spec §4.6 step 3's per-originator streaming query.
func (r *SyncLogRepo) Since(ctx context.Context, originator string, after wire.HLC, limit int) ([]wire.SyncLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT physical_ms, counter, originator_device, model_type, record_uuid, change_type, data
		FROM sync_log
		WHERE originator_device = ? AND quarantined = 0
		  AND (physical_ms > ? OR (physical_ms = ? AND counter > ?))
		ORDER BY physical_ms ASC, counter ASC
		LIMIT ?`,
		originator, after.PhysicalMs, after.PhysicalMs, after.Counter, limit)
	if err != nil {
		return nil, errs.TransientIO(err, "syncengine: querying sync log")
	}
	defer rows.Close()

	var out []wire.SyncLogEntry
	for rows.Next() {
		var e wire.SyncLogEntry
		var data []byte
		var change string
		if err := rows.Scan(&e.HLC.PhysicalMs, &e.HLC.Counter, &e.Originator, &e.Model, &e.UUID, &change, &data); err != nil {
			return nil, errs.TransientIO(err, "syncengine: scanning sync log row")
		}
		e.HLC.DeviceUUID = e.Originator
		e.Change = wire.ChangeKind(change)
		e.Data = wire.RawMessage(data)
		out = append(out, e)
	}
	return out, errs.TransientIO(rows.Err(), "syncengine: iterating sync log rows")
}

// Quarantine marks entry unprocessable so future Since calls skip it, and
// records why in the event log — spec §4.6 step 5.
func (r *SyncLogRepo) Quarantine(ctx context.Context, entry wire.SyncLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_log SET quarantined = 1
		WHERE originator_device = ? AND physical_ms = ? AND counter = ?`,
		entry.Originator, entry.HLC.PhysicalMs, entry.HLC.Counter)
	return errs.TransientIO(err, "syncengine: quarantining sync log entry")
}
