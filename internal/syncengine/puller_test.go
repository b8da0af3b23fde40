package syncengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

type respondingFetcher struct{ resp *Responder }

func (f respondingFetcher) FetchSince(ctx context.Context, req wire.SyncRequest) (wire.SyncBatch, error) {
	return f.resp.Respond(ctx, req)
}

func TestPullAppliesRemoteLogAndAdvancesWatermark(t *testing.T) {
	// Device B: the peer being pulled from.
	bStore, bLog, _, _ := newTestEngine(t)
	require.NoError(t, bLog.Append(context.Background(), nil, wire.SyncLogEntry{
		HLC: wire.HLC{PhysicalMs: 100, DeviceUUID: "dev-b"}, Originator: "dev-b",
		Model: "widget", UUID: "w1", Data: wire.RawMessage(`{"name":"from-b"}`),
	}))
	_ = bStore

	// Device A: pulls from B and applies into its own state.
	aStore, aLog, aMarks, aEvents := newTestEngine(t)
	registry := NewRegistry()
	registry.Register(upsertModel("widget", nil))
	applier := NewApplier(aStore.DB(), registry, aLog, aMarks, aEvents)
	puller := NewPuller(aMarks, applier)

	fetcher := respondingFetcher{resp: NewResponder(bLog)}
	require.NoError(t, puller.Pull(context.Background(), "dev-b", fetcher))

	assert.Equal(t, 1, entryStateCount(t, aStore))

	wm, err := aMarks.Get(context.Background(), "dev-b", "dev-b")
	require.NoError(t, err)
	assert.EqualValues(t, 100, wm.PhysicalMs)

	// A second pull with nothing new to fetch is a no-op, not an error.
	require.NoError(t, puller.Pull(context.Background(), "dev-b", fetcher))
	assert.Equal(t, 1, entryStateCount(t, aStore))
}
