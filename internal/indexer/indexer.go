// Package indexer implements spec §4.4's L4 pipeline: a three-phase
// Walk → Reconcile → Identify batch indexer for a Location, plus an
// fsnotify-backed watcher (watcher.go) that re-runs the same reconcile
// logic incrementally as the filesystem changes, and a read-only browser
// for non-indexed directories (nonindexed.go).
package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/spacedriveapp/sdcore/internal/catalog"
	"github.com/spacedriveapp/sdcore/internal/eventbus"
	"github.com/spacedriveapp/sdcore/internal/jobs"
)

// Indexer owns the catalog repositories and shared infrastructure every
// phase of the pipeline needs. One Indexer serves every Location in a
// Library, the way the teacher's single sync Engine serves every
// configured drive profile.
type Indexer struct {
	entries   *catalog.EntryRepo
	prefixes  *catalog.PrefixRepo
	locations *catalog.LocationRepo

	events  *eventbus.Bus
	log     *slog.Logger
	rules   *RuleSet
	shallow *ShallowCache
}

func New(entries *catalog.EntryRepo, prefixes *catalog.PrefixRepo, locations *catalog.LocationRepo, events *eventbus.Bus, log *slog.Logger) (*Indexer, error) {
	shallow, err := NewShallowCache()
	if err != nil {
		return nil, err
	}
	return &Indexer{
		entries:   entries,
		prefixes:  prefixes,
		locations: locations,
		events:    events,
		log:       log,
		rules:     NewRuleSet(DefaultExcludeRules),
		shallow:   shallow,
	}, nil
}

// Close releases the Indexer's ephemeral shallow-cache resources.
func (ix *Indexer) Close() error { return ix.shallow.Close() }

// FilesIndexedPayload is the event bus payload for eventbus.KindFilesIndexed
// (spec §6).
type FilesIndexedPayload struct {
	LocationID string
	Count      int
	Duration   time.Duration
}

// IndexLocationTask builds the Job task that runs the full pipeline for
// loc. The task carries loc's volume as its affinity key so the Dispatcher
// applies the same soft per-disk concurrency cap to indexing as to any
// other volume I/O (spec §4.3).
func (ix *Indexer) IndexLocationTask(loc catalog.Location) jobs.Task {
	volume := ""
	if loc.VolumeID != nil {
		volume = *loc.VolumeID
	}
	return jobs.VolumeTask{
		Volume: volume,
		Kind:   jobs.AccessSequential,
		Fn: func(ctx context.Context, job *jobs.Job) error {
			return ix.runIndex(ctx, job, loc)
		},
	}
}

func (ix *Indexer) runIndex(ctx context.Context, job *jobs.Job, loc catalog.Location) error {
	start := time.Now()
	walked, err := ix.walk(ctx, job, loc)
	if err != nil {
		return err
	}

	reconciled, err := ix.reconcile(ctx, loc, walked)
	if err != nil {
		return err
	}

	if loc.IndexMode != catalog.IndexShallow {
		if err := ix.identify(ctx, job, loc, reconciled); err != nil {
			return err
		}
	}

	if ix.events != nil {
		ix.events.Publish(eventbus.Event{
			Kind:    eventbus.KindFilesIndexed,
			Payload: FilesIndexedPayload{LocationID: loc.ID, Count: len(walked), Duration: time.Since(start)},
		})
	}

	return nil
}
