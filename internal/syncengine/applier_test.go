package syncengine

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

func newTestEngine(t *testing.T) (*Store, *SyncLogRepo, *WatermarkRepo, *EventLogRepo) {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "library.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.DB().Exec(`CREATE TABLE applied_state (record_uuid TEXT PRIMARY KEY, data TEXT NOT NULL)`)
	require.NoError(t, err)

	return store, NewSyncLogRepo(store), NewWatermarkRepo(store), NewEventLogRepo(store)
}

func upsertModel(name string, fail func(wire.SyncLogEntry) bool) *ModelDef {
	return &ModelDef{
		Name: name,
		Apply: func(ctx context.Context, tx *sql.Tx, e wire.SyncLogEntry) error {
			if fail != nil && fail(e) {
				return assert.AnError
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO applied_state (record_uuid, data) VALUES (?, ?)
				ON CONFLICT (record_uuid) DO UPDATE SET data = excluded.data`,
				e.UUID, string(e.Data))
			return err
		},
	}
}

func entryStateCount(t *testing.T, store *Store) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM applied_state`).Scan(&n))
	return n
}

func TestApplyBatchIsIdempotent(t *testing.T) {
	store, log, marks, events := newTestEngine(t)
	registry := NewRegistry()
	registry.Register(upsertModel("widget", nil))

	applier := NewApplier(store.DB(), registry, log, marks, events)
	entry := wire.SyncLogEntry{
		HLC:        wire.HLC{PhysicalMs: 100, Counter: 0, DeviceUUID: "dev-2"},
		Originator: "dev-2", Model: "widget", UUID: "w1",
		Change: wire.ChangeCreate, Data: wire.RawMessage(`{"name":"a"}`),
	}

	require.NoError(t, applier.ApplyBatch(context.Background(), "dev-1", []wire.SyncLogEntry{entry}))
	require.NoError(t, applier.ApplyBatch(context.Background(), "dev-1", []wire.SyncLogEntry{entry}))

	assert.Equal(t, 1, entryStateCount(t, store))

	wm, err := marks.Get(context.Background(), "dev-1", "dev-2")
	require.NoError(t, err)
	assert.Equal(t, entry.HLC.PhysicalMs, wm.PhysicalMs)
}

func TestApplyBatchOrdersByDependencyThenHLC(t *testing.T) {
	store, log, marks, events := newTestEngine(t)
	registry := NewRegistry()

	var applyOrder []string
	registry.Register(&ModelDef{Name: "prefix", Apply: func(ctx context.Context, tx *sql.Tx, e wire.SyncLogEntry) error {
		applyOrder = append(applyOrder, e.Model+":"+e.UUID)
		return nil
	}})
	registry.Register(&ModelDef{Name: "entry", DependsOn: []string{"prefix"}, Apply: func(ctx context.Context, tx *sql.Tx, e wire.SyncLogEntry) error {
		applyOrder = append(applyOrder, e.Model+":"+e.UUID)
		return nil
	}})

	applier := NewApplier(store.DB(), registry, log, marks, events)
	entries := []wire.SyncLogEntry{
		{HLC: wire.HLC{PhysicalMs: 200}, Originator: "dev-2", Model: "entry", UUID: "e1"},
		{HLC: wire.HLC{PhysicalMs: 100}, Originator: "dev-2", Model: "prefix", UUID: "p1"},
	}

	require.NoError(t, applier.ApplyBatch(context.Background(), "dev-1", entries))
	assert.Equal(t, []string{"prefix:p1", "entry:e1"}, applyOrder)
}

func TestApplyBatchQuarantinesRepeatedlyFailingSingleEntry(t *testing.T) {
	store, log, marks, events := newTestEngine(t)
	registry := NewRegistry()
	registry.Register(upsertModel("widget", func(e wire.SyncLogEntry) bool { return true }))

	applier := NewApplier(store.DB(), registry, log, marks, events)
	entry := wire.SyncLogEntry{
		HLC: wire.HLC{PhysicalMs: 100, DeviceUUID: "dev-2"}, Originator: "dev-2",
		Model: "widget", UUID: "w1", Data: wire.RawMessage(`{}`),
	}
	require.NoError(t, log.Append(context.Background(), nil, entry))

	err := applier.ApplyBatch(context.Background(), "dev-1", []wire.SyncLogEntry{entry})
	require.NoError(t, err)

	events_, err := events.Recent(context.Background(), SeverityError, 10)
	require.NoError(t, err)
	require.Len(t, events_, 1)

	remaining, err := log.Since(context.Background(), "dev-2", wire.HLC{}, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 0) // quarantined entries are excluded from Since
}
