package library

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedriveapp/sdcore/internal/action"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(t.TempDir(), slog.Default(), Options{JobWorkers: 1})
	t.Cleanup(func() { m.CloseAll() })
	return m
}

func TestCreateOpensANewLibraryWithOwnedStores(t *testing.T) {
	m := newTestManager(t)

	lib, err := m.Create(context.Background(), "Photos", "family photos")
	require.NoError(t, err)
	assert.NotEmpty(t, lib.ID)
	assert.Equal(t, "Photos", lib.Descriptor().Name)
	assert.NotEmpty(t, lib.LocalDevice.ID)
	assert.True(t, lib.LocalDevice.IsLocal)

	_, ok := m.Get(lib.ID)
	assert.True(t, ok)
}

func TestCloseThenOpenReopensFromDisk(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	created, err := m.Create(ctx, "Docs", "")
	require.NoError(t, err)
	id := created.ID

	require.NoError(t, m.Close(id))
	_, stillOpen := m.Get(id)
	assert.False(t, stillOpen)

	reopened, err := m.Open(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, reopened.ID)
	assert.Equal(t, "Docs", reopened.Descriptor().Name)
}

func TestListEnumeratesLibrariesWithoutOpeningThem(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "A", "")
	require.NoError(t, err)
	lib, err := m.Create(ctx, "B", "")
	require.NoError(t, err)
	require.NoError(t, m.Close(lib.ID))

	descs, err := m.List()
	require.NoError(t, err)
	assert.Len(t, descs, 2)
}

func TestRenameUpdatesDescriptorAndCatalogRow(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	lib, err := m.Create(ctx, "Old Name", "")
	require.NoError(t, err)

	require.NoError(t, m.Rename(ctx, lib.ID, "New Name"))
	assert.Equal(t, "New Name", lib.Descriptor().Name)

	row, err := lib.Catalog.DB().Query(`SELECT name FROM libraries WHERE id = ?`, lib.ID)
	require.NoError(t, err)
	defer row.Close()
	require.True(t, row.Next())
	var name string
	require.NoError(t, row.Scan(&name))
	assert.Equal(t, "New Name", name)
}

func TestDeleteRefusesAnOpenLibrary(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	lib, err := m.Create(ctx, "Still Open", "")
	require.NoError(t, err)

	err = m.Delete(ctx, lib.ID)
	assert.Error(t, err)

	require.NoError(t, m.Close(lib.ID))
	assert.NoError(t, m.Delete(ctx, lib.ID))

	descs, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, descs)
}

type createLibraryPayload struct {
	Name        string
	Description string
}

func TestCoreHandlersRoundTripThroughTheActionRegistry(t *testing.T) {
	m := newTestManager(t)
	sess := action.SessionContext{Session: action.Session{DeviceID: "tester"}}

	createPayload, err := wire.Marshal(createLibraryPayload{Name: "Via Action"})
	require.NoError(t, err)
	resp := m.CoreActions.Dispatch(context.Background(), sess, wire.Request{Kind: wire.RequestAction, Name: "library.create", Payload: createPayload})
	require.True(t, resp.OK, "expected success, got error %+v", resp.Error)

	var created Descriptor
	require.NoError(t, wire.Unmarshal(resp.Output, &created))
	assert.Equal(t, "Via Action", created.Name)

	listResp := m.CoreActions.Dispatch(context.Background(), sess, wire.Request{Kind: wire.RequestQuery, Name: "library.list"})
	require.True(t, listResp.OK)
	var listed []Descriptor
	require.NoError(t, wire.Unmarshal(listResp.Output, &listed))
	assert.Len(t, listed, 1)
}
