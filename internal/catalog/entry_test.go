package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(context.Background(), path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEntryAggregatesPropagateToAncestors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewEntryRepo(store)
	prefixes := NewPrefixRepo(store)

	prefixID, err := prefixes.EnsureID(ctx, "dev1", "/data")
	require.NoError(t, err)

	now := time.Now()
	rootID, err := repo.UpsertRoot(ctx, &Entry{
		UUID: "root-uuid", DeviceID: "dev1", PrefixID: prefixID,
		RelativePath: "", Name: "data", Kind: EntryDirectory,
		CreatedAt: now, ModifiedAt: now,
	})
	require.NoError(t, err)

	childID, err := repo.InsertChild(ctx, &Entry{
		UUID: "child-uuid", DeviceID: "dev1", PrefixID: prefixID,
		RelativePath: "a.txt", Name: "a.txt", Extension: "txt", Kind: EntryFile,
		Size: 1024, CreatedAt: now, ModifiedAt: now,
	}, rootID)
	require.NoError(t, err)
	assert.NotZero(t, childID)

	root, err := repo.FindByPath(ctx, prefixID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1024, root.AggregateSize)
	assert.EqualValues(t, 1, root.ChildCount)
	assert.EqualValues(t, 1, root.FileCount)

	children, err := repo.Children(ctx, rootID)
	require.NoError(t, err)
	assert.Len(t, children, 1)
}

func TestSetContentIDDedupesBySizeAndCasID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewEntryRepo(store)
	prefixes := NewPrefixRepo(store)

	libRepo := NewLibraryRepo(store)
	require.NoError(t, libRepo.Create(ctx, &Library{ID: "lib1", Name: "Main", Path: "/lib1"}))

	devRepo := NewDeviceRepo(store)
	require.NoError(t, devRepo.Create(ctx, &Device{ID: "dev1", LibraryID: "lib1", Name: "this-device", PublicKey: []byte("key")}))

	prefixID, err := prefixes.EnsureID(ctx, "dev1", "/data")
	require.NoError(t, err)

	now := time.Now()
	rootID, err := repo.UpsertRoot(ctx, &Entry{
		UUID: "root", DeviceID: "dev1", PrefixID: prefixID, Kind: EntryDirectory,
		CreatedAt: now, ModifiedAt: now,
	})
	require.NoError(t, err)

	e1ID, err := repo.InsertChild(ctx, &Entry{
		UUID: "e1", DeviceID: "dev1", PrefixID: prefixID, RelativePath: "a.txt", Name: "a.txt", Kind: EntryFile, Size: 5,
		CreatedAt: now, ModifiedAt: now,
	}, rootID)
	require.NoError(t, err)

	e2ID, err := repo.InsertChild(ctx, &Entry{
		UUID: "e2", DeviceID: "dev1", PrefixID: prefixID, RelativePath: "a_copy.txt", Name: "a_copy.txt", Kind: EntryFile, Size: 5,
		CreatedAt: now, ModifiedAt: now,
	}, rootID)
	require.NoError(t, err)

	c1, err := repo.SetContentID(ctx, e1ID, "lib1", "dev1", "content-uuid-1", "deadbeef01234567", 5, "document", "text/plain", "txt")
	require.NoError(t, err)

	c2, err := repo.SetContentID(ctx, e2ID, "lib1", "dev1", "content-uuid-2", "deadbeef01234567", 5, "document", "text/plain", "txt")
	require.NoError(t, err)

	assert.Equal(t, c1, c2, "identical (size, cas_id) must dedup to the same ContentIdentity row")
}
