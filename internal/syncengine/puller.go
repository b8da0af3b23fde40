package syncengine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// Fetcher is implemented by whatever carries a sync/1 request to a peer —
// internal/p2p's sync/1 stream in production, an in-process Responder in
// tests. Kept as its own interface so Puller never depends on the
// transport layer directly.
type Fetcher interface {
	FetchSince(ctx context.Context, req wire.SyncRequest) (wire.SyncBatch, error)
}

// Puller runs the A side of spec §4.6's pull protocol against one peer:
// build a request from locally held watermarks, apply whatever batches
// come back, and keep requesting until the peer reports EndOfStream.
type Puller struct {
	marks   *WatermarkRepo
	applier *Applier
}

func NewPuller(marks *WatermarkRepo, applier *Applier) *Puller {
	return &Puller{marks: marks, applier: applier}
}

// Pull drains peer via fetcher until caught up. Each applied batch
// advances this device's watermarks for peer, so a Pull resumed after a
// dropped connection picks up exactly where it left off.
func (p *Puller) Pull(ctx context.Context, peer string, fetcher Fetcher) error {
	for {
		watermarks, err := p.marks.All(ctx, peer)
		if err != nil {
			return err
		}

		batch, err := fetcher.FetchSince(ctx, wire.SyncRequest{Watermarks: watermarks})
		if err != nil {
			return errs.TransientIO(err, "syncengine: fetching sync batch from peer "+peer)
		}

		if len(batch.Entries) > 0 {
			if err := p.applier.ApplyBatch(ctx, peer, batch.Entries); err != nil {
				return err
			}
		}

		if batch.EndOfStream {
			return nil
		}
	}
}

// PullAll runs Pull against every peer concurrently, fanning in the first
// error via errgroup — the teacher's worker-pool shutdown-fan-in pattern
// (internal/jobs/dispatcher.go) applied to concurrent peer pulls instead
// of concurrent workers.
func PullAll(ctx context.Context, puller *Puller, fetchers map[string]Fetcher) error {
	g, ctx := errgroup.WithContext(ctx)
	for peer, fetcher := range fetchers {
		peer, fetcher := peer, fetcher
		g.Go(func() error { return puller.Pull(ctx, peer, fetcher) })
	}
	return g.Wait()
}
