package syncengine

import (
	"context"
	"sort"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

const defaultSyncBatchSize = 500

// Responder serves the B side of spec §4.6's pull protocol: given A's
// per-originator watermarks, stream back every SyncLogEntry newer than
// what A has already acknowledged, oldest first, in bounded batches.
type Responder struct {
	log       *SyncLogRepo
	batchSize int
}

func NewResponder(log *SyncLogRepo) *Responder {
	return &Responder{log: log, batchSize: defaultSyncBatchSize}
}

// Respond answers one SyncRequest with up to one batchSize-capped page,
// merged in ascending HLC order across every originator named in the
// request's watermarks (step 3: "in ascending HLC order, in batches").
func (s *Responder) Respond(ctx context.Context, req wire.SyncRequest) (wire.SyncBatch, error) {
	var all []wire.SyncLogEntry
	for _, w := range req.Watermarks {
		entries, err := s.log.Since(ctx, w.DeviceUUID, w.HLC, s.batchSize)
		if err != nil {
			return wire.SyncBatch{}, err
		}
		all = append(all, entries...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].HLC.Before(all[j].HLC) })

	endOfStream := true
	if len(all) > s.batchSize {
		all = all[:s.batchSize]
		endOfStream = false
	}

	return wire.SyncBatch{Entries: all, EndOfStream: endOfStream}, nil
}
