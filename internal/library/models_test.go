package library

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedriveapp/sdcore/internal/catalog"
	"github.com/spacedriveapp/sdcore/internal/syncengine"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

func newTestStores(t *testing.T) (*catalog.Store, *syncengine.Store) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.db")

	catalogStore, err := catalog.Open(ctx, path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { catalogStore.Close() })

	syncStore, err := syncengine.Open(ctx, path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { syncStore.Close() })

	require.NoError(t, catalog.NewLibraryRepo(catalogStore).Create(ctx, &catalog.Library{
		ID: "lib-1", Name: "Test Library", Path: path,
	}))

	return catalogStore, syncStore
}

func TestApplyDeviceModelInsertsAndTombstonesCatalogRow(t *testing.T) {
	catalogStore, syncStore := newTestStores(t)
	ctx := context.Background()

	registry := syncengine.NewRegistry()
	registerSyncModels(registry)

	syncLog := syncengine.NewSyncLogRepo(syncStore)
	applier := syncengine.NewApplier(catalogStore.DB(), registry,
		syncLog, syncengine.NewWatermarkRepo(syncStore), syncengine.NewEventLogRepo(syncStore))

	data, err := syncengine.EncodePatch(devicePatch{LibraryID: "lib-1", Name: "remote-laptop", PublicKey: []byte("pubkey")})
	require.NoError(t, err)

	entry := wire.SyncLogEntry{
		HLC:        wire.HLC{PhysicalMs: 1, DeviceUUID: "peer-device"},
		Originator: "peer-device",
		Model:      "device",
		UUID:       "device-remote-1",
		Change:     wire.ChangeCreate,
		Data:       data,
	}
	require.NoError(t, applier.ApplyBatch(ctx, "peer-device", []wire.SyncLogEntry{entry}))

	var name string
	require.NoError(t, catalogStore.DB().QueryRowContext(ctx,
		`SELECT name FROM devices WHERE id = ?`, "device-remote-1").Scan(&name))
	assert.Equal(t, "remote-laptop", name)

	deleteEntry := entry
	deleteEntry.HLC.PhysicalMs = 2
	deleteEntry.Change = wire.ChangeDelete
	require.NoError(t, applier.ApplyBatch(ctx, "peer-device", []wire.SyncLogEntry{deleteEntry}))

	var count int
	require.NoError(t, catalogStore.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM device_state_tombstones WHERE device_id = ?`, "device-remote-1").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestApplyContentIdentityModelDependsOnDevice(t *testing.T) {
	catalogStore, syncStore := newTestStores(t)
	ctx := context.Background()

	registry := syncengine.NewRegistry()
	registerSyncModels(registry)
	assert.Equal(t, []string{"device", "content_identity"}, registry.Order())

	syncLog := syncengine.NewSyncLogRepo(syncStore)
	applier := syncengine.NewApplier(catalogStore.DB(), registry,
		syncLog, syncengine.NewWatermarkRepo(syncStore), syncengine.NewEventLogRepo(syncStore))

	deviceData, err := syncengine.EncodePatch(devicePatch{LibraryID: "lib-1", Name: "remote", PublicKey: []byte("k")})
	require.NoError(t, err)
	contentData, err := syncengine.EncodePatch(contentIdentityPatch{
		LibraryID: "lib-1", DeviceID: "device-remote-2", CasID: "cas123", Size: 42, Kind: "image",
	})
	require.NoError(t, err)

	// Submitted out of dependency order; the Applier must still apply
	// device before content_identity within the batch.
	entries := []wire.SyncLogEntry{
		{HLC: wire.HLC{PhysicalMs: 1, DeviceUUID: "peer"}, Originator: "peer", Model: "content_identity",
			UUID: "content-1", Change: wire.ChangeCreate, Data: contentData},
		{HLC: wire.HLC{PhysicalMs: 1, Counter: 1, DeviceUUID: "peer"}, Originator: "peer", Model: "device",
			UUID: "device-remote-2", Change: wire.ChangeCreate, Data: deviceData},
	}
	require.NoError(t, applier.ApplyBatch(ctx, "peer", entries))

	var casID string
	require.NoError(t, catalogStore.DB().QueryRowContext(ctx,
		`SELECT cas_id FROM content_identities WHERE uuid = ?`, "content-1").Scan(&casID))
	assert.Equal(t, "cas123", casID)
}
