package syncengine_test

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacedriveapp/sdcore/internal/syncengine"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

func TestSyncEngineInvariants(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "sync engine invariants")
}

// These are the spec §8 testable properties that apply directly to
// internal/syncengine: idempotent apply, last-writer-wins on conflicting
// HLCs, and monotonic (never-regressing) watermark advancement.
var _ = Describe("sync engine invariants", func() {
	var (
		store    *syncengine.Store
		log      *syncengine.SyncLogRepo
		marks    *syncengine.WatermarkRepo
		events   *syncengine.EventLogRepo
		registry *syncengine.Registry
		applier  *syncengine.Applier
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = syncengine.Open(ctx, filepath.Join(GinkgoT().TempDir(), "library.db"), slog.Default())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		_, err = store.DB().Exec(`CREATE TABLE widgets (record_uuid TEXT PRIMARY KEY, name TEXT NOT NULL, hlc_ms INTEGER NOT NULL)`)
		Expect(err).NotTo(HaveOccurred())

		log = syncengine.NewSyncLogRepo(store)
		marks = syncengine.NewWatermarkRepo(store)
		events = syncengine.NewEventLogRepo(store)
		registry = syncengine.NewRegistry()
		registry.Register(&syncengine.ModelDef{
			Name: "widget",
			Apply: func(ctx context.Context, tx *sql.Tx, e wire.SyncLogEntry) error {
				var patch struct {
					Name string `json:"name"`
				}
				if err := syncengine.DecodePatch(e.Data, &patch); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, `
					INSERT INTO widgets (record_uuid, name, hlc_ms) VALUES (?, ?, ?)
					ON CONFLICT (record_uuid) DO UPDATE SET name = excluded.name, hlc_ms = excluded.hlc_ms
					WHERE excluded.hlc_ms >= widgets.hlc_ms`,
					e.UUID, patch.Name, e.HLC.PhysicalMs)
				return err
			},
		})
		applier = syncengine.NewApplier(store.DB(), registry, log, marks, events)
	})

	It("applies the same entry twice with no observable state change", func() {
		data, err := syncengine.EncodePatch(map[string]string{"name": "first"})
		Expect(err).NotTo(HaveOccurred())
		entry := wire.SyncLogEntry{
			HLC: wire.HLC{PhysicalMs: 100, DeviceUUID: "dev-2"}, Originator: "dev-2",
			Model: "widget", UUID: "w1", Data: data,
		}

		Expect(applier.ApplyBatch(ctx, "dev-1", []wire.SyncLogEntry{entry})).To(Succeed())
		Expect(applier.ApplyBatch(ctx, "dev-1", []wire.SyncLogEntry{entry})).To(Succeed())

		var count int
		Expect(store.DB().QueryRow(`SELECT COUNT(*) FROM widgets`).Scan(&count)).To(Succeed())
		Expect(count).To(Equal(1))
	})

	It("resolves conflicting updates to the same record by last-writer-wins on HLC", func() {
		older, _ := syncengine.EncodePatch(map[string]string{"name": "older"})
		newer, _ := syncengine.EncodePatch(map[string]string{"name": "newer"})

		entries := []wire.SyncLogEntry{
			{HLC: wire.HLC{PhysicalMs: 200, DeviceUUID: "dev-2"}, Originator: "dev-2", Model: "widget", UUID: "w1", Data: newer},
			{HLC: wire.HLC{PhysicalMs: 100, DeviceUUID: "dev-2"}, Originator: "dev-2", Model: "widget", UUID: "w1", Data: older},
		}
		// Apply out of order: the later HLC first, then the earlier one.
		Expect(applier.ApplyBatch(ctx, "dev-1", entries[:1])).To(Succeed())
		Expect(applier.ApplyBatch(ctx, "dev-1", entries[1:])).To(Succeed())

		var name string
		Expect(store.DB().QueryRow(`SELECT name FROM widgets WHERE record_uuid = 'w1'`).Scan(&name)).To(Succeed())
		Expect(name).To(Equal("newer"))
	})

	It("never regresses a peer watermark when a batch arrives out of HLC order", func() {
		high := wire.HLC{PhysicalMs: 500, DeviceUUID: "dev-2"}
		low := wire.HLC{PhysicalMs: 100, DeviceUUID: "dev-2"}

		Expect(marks.Advance(ctx, "dev-1", "dev-2", high)).To(Succeed())
		Expect(marks.Advance(ctx, "dev-1", "dev-2", low)).To(Succeed())

		got, err := marks.Get(ctx, "dev-1", "dev-2")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.PhysicalMs).To(Equal(int64(500)))
	})
})
