package library

import (
	"context"
	"database/sql"

	"github.com/spacedriveapp/sdcore/internal/syncengine"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// registerSyncModels wires the concrete spec §4.6 syncable models a Library
// replicates over sync/1: device and content_identity, the two catalog
// tables addressed by a stable UUID that don't also require rebuilding a
// closure table on apply. Entry/Tag/PathPrefix replication is deferred —
// see DESIGN.md's Open Question decision on closure-table models.
func registerSyncModels(reg *syncengine.Registry) {
	reg.Register(&syncengine.ModelDef{
		Name: "device",
		Apply: func(ctx context.Context, tx *sql.Tx, entry wire.SyncLogEntry) error {
			return applyDevice(ctx, tx, entry)
		},
	})

	reg.Register(&syncengine.ModelDef{
		Name:      "content_identity",
		DependsOn: []string{"device"},
		Apply: func(ctx context.Context, tx *sql.Tx, entry wire.SyncLogEntry) error {
			return applyContentIdentity(ctx, tx, entry)
		},
	})
}

type devicePatch struct {
	LibraryID string `json:"library_id"`
	Name      string `json:"name"`
	PublicKey []byte `json:"public_key"`
}

// applyDevice upserts a remote device.go row by id (spec's device_uuid),
// the way a paired peer becomes visible to every other device in the
// library once its SyncLogEntry replicates.
func applyDevice(ctx context.Context, tx *sql.Tx, entry wire.SyncLogEntry) error {
	if entry.Change == wire.ChangeDelete {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO device_state_tombstones (device_id, removed_at, reason)
			VALUES (?, ?, 'sync_delete')
			ON CONFLICT(device_id) DO UPDATE SET removed_at = excluded.removed_at`,
			entry.UUID, entry.HLC.PhysicalMs)
		return err
	}

	var p devicePatch
	if err := syncengine.DecodePatch(entry.Data, &p); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO devices (id, library_id, name, public_key, is_local, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, public_key = excluded.public_key`,
		entry.UUID, p.LibraryID, p.Name, p.PublicKey, entry.HLC.PhysicalMs)
	return err
}

type contentIdentityPatch struct {
	LibraryID string `json:"library_id"`
	DeviceID  string `json:"device_id"`
	CasID     string `json:"cas_id"`
	FullHash  string `json:"full_hash"`
	Size      int64  `json:"size"`
	Kind      string `json:"kind"`
	Mime      string `json:"mime"`
	Extension string `json:"extension"`
	Blurhash  string `json:"blurhash"`
}

// applyContentIdentity upserts a remote content_identities row by uuid, so
// content a peer has already fingerprinted and deduplicated doesn't have to
// be rehashed locally just because the bytes live on a different device.
func applyContentIdentity(ctx context.Context, tx *sql.Tx, entry wire.SyncLogEntry) error {
	if entry.Change == wire.ChangeDelete {
		_, err := tx.ExecContext(ctx, `DELETE FROM content_identities WHERE uuid = ?`, entry.UUID)
		return err
	}

	var p contentIdentityPatch
	if err := syncengine.DecodePatch(entry.Data, &p); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO content_identities
			(uuid, library_id, device_id, cas_id, full_hash, size, kind, mime, extension, blurhash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			full_hash = excluded.full_hash,
			kind      = excluded.kind,
			mime      = excluded.mime,
			blurhash  = excluded.blurhash`,
		entry.UUID, p.LibraryID, p.DeviceID, p.CasID, p.FullHash, p.Size, p.Kind, p.Mime, p.Extension, p.Blurhash,
		entry.HLC.PhysicalMs)
	return err
}
