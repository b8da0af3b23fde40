package indexer

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedriveapp/sdcore/internal/catalog"
	"github.com/spacedriveapp/sdcore/internal/eventbus"
	"github.com/spacedriveapp/sdcore/internal/jobs"
)

func newTestIndexer(t *testing.T) (*Indexer, *catalog.EntryRepo, *catalog.LocationRepo) {
	t.Helper()
	store, err := catalog.Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	entries := catalog.NewEntryRepo(store)
	prefixes := catalog.NewPrefixRepo(store)
	locations := catalog.NewLocationRepo(store)

	ix, err := New(entries, prefixes, locations, eventbus.New(16), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	return ix, entries, locations
}

func writeTree(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("world"), 0o644))
}

func runJob(t *testing.T, task jobs.Task) {
	t.Helper()
	job := jobs.New(uuid.NewString(), "lib-1", "index test", jobs.PriorityNormal, json.RawMessage(`{}`))
	require.NoError(t, task.Run(context.Background(), job))
}

func TestIndexLocationPopulatesCatalog(t *testing.T) {
	ix, entries, locations := newTestIndexer(t)
	root := t.TempDir()
	writeTree(t, root)

	loc := catalog.Location{
		ID: uuid.NewString(), LibraryID: "lib-1", DeviceID: "dev-1",
		RootPath: root, IndexMode: catalog.IndexContent,
	}
	require.NoError(t, locations.Create(context.Background(), &loc))

	runJob(t, ix.IndexLocationTask(loc))

	got, err := locations.Get(context.Background(), loc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RootEntryID)

	root1, err := entries.Subtree(context.Background(), *got.RootEntryID, true)
	require.NoError(t, err)
	assert.Len(t, root1, 4) // root + a.txt + sub + sub/b.txt

	var rootEntry *catalog.Entry
	for i := range root1 {
		if root1[i].RelativePath == "" {
			rootEntry = &root1[i]
		}
	}
	require.NotNil(t, rootEntry)
	assert.EqualValues(t, 2, rootEntry.FileCount)
	assert.EqualValues(t, 10, rootEntry.AggregateSize)
}

func TestReindexDropsRemovedFile(t *testing.T) {
	ix, entries, locations := newTestIndexer(t)
	root := t.TempDir()
	writeTree(t, root)

	loc := catalog.Location{
		ID: uuid.NewString(), LibraryID: "lib-1", DeviceID: "dev-1",
		RootPath: root, IndexMode: catalog.IndexContent,
	}
	require.NoError(t, locations.Create(context.Background(), &loc))
	runJob(t, ix.IndexLocationTask(loc))

	got, err := locations.Get(context.Background(), loc.ID)
	require.NoError(t, err)
	loc.RootEntryID = got.RootEntryID

	require.NoError(t, os.Remove(filepath.Join(root, "a.txt")))
	runJob(t, ix.IndexLocationTask(loc))

	after, err := entries.Subtree(context.Background(), *loc.RootEntryID, true)
	require.NoError(t, err)
	assert.Len(t, after, 3) // root + sub + sub/b.txt, a.txt gone
}

func TestBrowseNonIndexedListsWithoutCatalogWrite(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	root := t.TempDir()
	writeTree(t, root)

	listing, err := ix.BrowseNonIndexed(root)
	require.NoError(t, err)
	assert.Len(t, listing, 2) // a.txt, sub

	cached, err := ix.BrowseNonIndexed(root)
	require.NoError(t, err)
	assert.Equal(t, listing, cached)
}
