package syncengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

type widgetPatch struct {
	Name string `json:"name"`
}

func TestEncodeDecodePatchRoundTrip(t *testing.T) {
	data, err := EncodePatch(widgetPatch{Name: "gizmo"})
	require.NoError(t, err)

	var out widgetPatch
	require.NoError(t, DecodePatch(data, &out))
	assert.Equal(t, "gizmo", out.Name)
}

func TestSinceReturnsEntriesInAscendingHLCOrder(t *testing.T) {
	store, log, _, _ := newTestEngine(t)
	_ = store

	entries := []wire.SyncLogEntry{
		{HLC: wire.HLC{PhysicalMs: 300}, Originator: "dev-2", Model: "widget", UUID: "w3", Data: wire.RawMessage(`{}`)},
		{HLC: wire.HLC{PhysicalMs: 100}, Originator: "dev-2", Model: "widget", UUID: "w1", Data: wire.RawMessage(`{}`)},
		{HLC: wire.HLC{PhysicalMs: 200}, Originator: "dev-2", Model: "widget", UUID: "w2", Data: wire.RawMessage(`{}`)},
	}
	for _, e := range entries {
		require.NoError(t, log.Append(context.Background(), nil, e))
	}

	got, err := log.Since(context.Background(), "dev-2", wire.HLC{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "w1", got[0].UUID)
	assert.Equal(t, "w2", got[1].UUID)
	assert.Equal(t, "w3", got[2].UUID)
}

func TestSinceExcludesEntriesAtOrBeforeWatermark(t *testing.T) {
	store, log, _, _ := newTestEngine(t)
	_ = store

	require.NoError(t, log.Append(context.Background(), nil, wire.SyncLogEntry{
		HLC: wire.HLC{PhysicalMs: 100}, Originator: "dev-2", Model: "widget", UUID: "w1", Data: wire.RawMessage(`{}`),
	}))
	require.NoError(t, log.Append(context.Background(), nil, wire.SyncLogEntry{
		HLC: wire.HLC{PhysicalMs: 200}, Originator: "dev-2", Model: "widget", UUID: "w2", Data: wire.RawMessage(`{}`),
	}))

	got, err := log.Since(context.Background(), "dev-2", wire.HLC{PhysicalMs: 100}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "w2", got[0].UUID)
}
