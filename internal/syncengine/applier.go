package syncengine

import (
	"context"
	"database/sql"
	"sort"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

const (
	initialApplyBatchSize = 500
	minApplyBatchSize     = 1
)

// Applier runs the apply side of spec §4.6 step 4: order entries by
// (hlc, model dependency rank), dispatch each to its ModelDef.Apply inside
// one transaction, and on success advance the originator's watermark.
type Applier struct {
	db       *sql.DB
	registry *Registry
	log      *SyncLogRepo
	marks    *WatermarkRepo
	events   *EventLogRepo
	observer Observer
}

// Observer receives a callback for every entry the Applier successfully
// commits or gives up on, the hook internal/metrics attaches to count
// applied/quarantined sync entries without this package importing metrics.
type Observer interface {
	ObserveApplied(model string)
	ObserveQuarantined()
}

func NewApplier(db *sql.DB, registry *Registry, log *SyncLogRepo, marks *WatermarkRepo, events *EventLogRepo) *Applier {
	return &Applier{db: db, registry: registry, log: log, marks: marks, events: events}
}

// SetObserver attaches o, replacing any previously set observer.
func (a *Applier) SetObserver(o Observer) {
	a.observer = o
}

// ApplyBatch applies entries received from peer, halving the batch on
// repeated failure and quarantining any entry that still fails alone
// (spec §4.6 step 5). It is idempotent: re-applying an already-applied
// entry must leave state unchanged, which is ModelDef.Apply's contract.
func (a *Applier) ApplyBatch(ctx context.Context, peer string, entries []wire.SyncLogEntry) error {
	ordered := a.order(entries)
	return a.applyOrdered(ctx, peer, ordered)
}

func (a *Applier) applyOrdered(ctx context.Context, peer string, entries []wire.SyncLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if err := a.applyTx(ctx, entries); err != nil {
		if len(entries) == minApplyBatchSize {
			e := entries[0]
			if qerr := a.log.Quarantine(ctx, e); qerr != nil {
				return qerr
			}
			if a.observer != nil {
				a.observer.ObserveQuarantined()
			}
			return a.events.Record(ctx, SeverityError,
				"sync entry quarantined after repeated apply failure: "+err.Error(), e.Model, e.UUID)
		}

		mid := len(entries) / 2
		if err := a.applyOrdered(ctx, peer, entries[:mid]); err != nil {
			return err
		}
		return a.applyOrdered(ctx, peer, entries[mid:])
	}

	for _, e := range entries {
		if err := a.marks.Advance(ctx, peer, e.Originator, e.HLC); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) applyTx(ctx context.Context, entries []wire.SyncLogEntry) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.TransientIO(err, "syncengine: beginning apply transaction")
	}
	defer tx.Rollback()

	for _, e := range entries {
		def, ok := a.registry.model(e.Model)
		if !ok {
			return errs.Integrity(nil, "syncengine: no registered model "+e.Model)
		}
		if err := def.Apply(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := errs.TransientIO(tx.Commit(), "syncengine: committing apply batch"); err != nil {
		return err
	}
	if a.observer != nil {
		for _, e := range entries {
			a.observer.ObserveApplied(e.Model)
		}
	}
	return nil
}

// order sorts entries by dependency rank first, then by HLC within each
// model, per spec §4.6's "compute_sync_order ... within a batch, entries
// are applied model-by-model in that order, then by HLC within each
// model."
func (a *Applier) order(entries []wire.SyncLogEntry) []wire.SyncLogEntry {
	out := make([]wire.SyncLogEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := a.registry.rank(out[i].Model), a.registry.rank(out[j].Model)
		if ri != rj {
			return ri < rj
		}
		return out[i].HLC.Before(out[j].HLC)
	})
	return out
}
