package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seedLibraryAndDevice(t *testing.T, store *Store) (libraryID, deviceID string) {
	t.Helper()
	ctx := context.Background()

	libraryID = "lib-1"
	require.NoError(t, NewLibraryRepo(store).Create(ctx, &Library{
		ID: libraryID, Name: "test", Path: t.TempDir(),
	}))

	deviceID = "dev-1"
	require.NoError(t, NewDeviceRepo(store).Create(ctx, &Device{
		ID: deviceID, LibraryID: libraryID, Name: "local", PublicKey: []byte("pubkey"), IsLocal: true,
	}))
	return libraryID, deviceID
}

func TestVolumeRepoUpsertListAndSpeedTest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	libraryID, deviceID := seedLibraryAndDevice(t, store)
	repo := NewVolumeRepo(store)

	require.NoError(t, repo.Upsert(ctx, &Volume{
		ID: "vol-1", LibraryID: libraryID, DeviceID: deviceID,
		Fingerprint: "fp-1", Name: "Internal SSD", MountPoint: "/",
		TotalBytes: 1 << 30, AvailableBytes: 1 << 29,
	}))

	vols, err := repo.List(ctx, libraryID)
	require.NoError(t, err)
	require.Len(t, vols, 1)
	require.Nil(t, vols[0].SpeedTestedAt)

	now := time.Now()
	require.NoError(t, repo.RecordSpeedTest(ctx, "vol-1", 500_000_000, 300_000_000, now))

	vols, err = repo.List(ctx, libraryID)
	require.NoError(t, err)
	require.Len(t, vols, 1)
	require.NotNil(t, vols[0].ReadSpeedBPS)
	require.EqualValues(t, 500_000_000, *vols[0].ReadSpeedBPS)
	require.NotNil(t, vols[0].WriteSpeedBPS)
	require.EqualValues(t, 300_000_000, *vols[0].WriteSpeedBPS)
	require.NotNil(t, vols[0].SpeedTestedAt)
}

func TestVolumeRepoListEmptyLibrary(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, _ = seedLibraryAndDevice(t, store)
	repo := NewVolumeRepo(store)

	vols, err := repo.List(ctx, "lib-does-not-exist")
	require.NoError(t, err)
	require.Empty(t, vols)
}
