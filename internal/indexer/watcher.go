package indexer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spacedriveapp/sdcore/internal/catalog"
	"github.com/spacedriveapp/sdcore/internal/platform"
)

// watcherBatchWindow is the batching interval spec §4.4 mandates: raw
// fsnotify events are collected for this long before being normalized and
// applied as one catalog-mutating batch.
const watcherBatchWindow = 500 * time.Millisecond

// WatchLocation starts watching loc.RootPath and applies batched catalog
// updates until ctx is canceled. It layers batching and rename-pairing on
// top of internal/platform.Watcher's recursive fsnotify wrapper: every
// watcherBatchWindow, the accumulated raw events are normalized (a
// Remove+Create pair sharing an inode collapses into one rename) and
// applied in Remove → Rename → Create → Modify order, so a rapid
// delete-then-recreate at the same path never transiently vanishes from
// the catalog view (spec §4.4).
func (ix *Indexer) WatchLocation(ctx context.Context, loc catalog.Location) error {
	w, err := platform.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.AddRoot(loc.RootPath); err != nil {
		return err
	}

	if err := ix.locations.SetWatcherActive(ctx, loc.ID, true); err != nil {
		return err
	}
	defer ix.locations.SetWatcherActive(context.Background(), loc.ID, false)

	ticker := time.NewTicker(watcherBatchWindow)
	defer ticker.Stop()

	var pending []platform.WatchEvent

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			pending = append(pending, ev)
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			batch := pending
			pending = nil
			if err := ix.applyBatch(ctx, w, loc, batch); err != nil {
				ix.log.Error("indexer: applying watch batch", "location", loc.ID, "error", err)
			}
		case werr, ok := <-w.Errors:
			if !ok {
				continue
			}
			ix.log.Warn("indexer: watcher error", "location", loc.ID, "error", werr)
		}
	}
}

func (ix *Indexer) applyBatch(ctx context.Context, w *platform.Watcher, loc catalog.Location, batch []platform.WatchEvent) error {
	prefixID, err := ix.prefixes.EnsureID(ctx, loc.DeviceID, loc.RootPath)
	if err != nil {
		return err
	}

	removedInode := map[uint64]catalog.Entry{}
	for _, ev := range batch {
		if ev.Op != platform.OpRemove {
			continue
		}
		e, err := ix.entries.FindByPath(ctx, prefixID, relPath(loc.RootPath, ev.Path))
		if err != nil {
			continue
		}
		if e.Inode != nil {
			removedInode[*e.Inode] = *e
		}
	}

	var removes, renames, creates, modifies []platform.WatchEvent
	consumedRemove := map[string]bool{}

	for _, ev := range batch {
		switch ev.Op {
		case platform.OpRemove:
			removes = append(removes, ev)
		case platform.OpCreate:
			if m, err := platform.Stat(ev.Path); err == nil {
				if prior, ok := removedInode[m.Inode]; ok {
					renames = append(renames, ev)
					consumedRemove[prior.RelativePath] = true
					continue
				}
			}
			creates = append(creates, ev)
		default:
			modifies = append(modifies, ev)
		}
	}

	for _, ev := range removes {
		rel := relPath(loc.RootPath, ev.Path)
		if consumedRemove[rel] {
			continue
		}
		e, err := ix.entries.FindByPath(ctx, prefixID, rel)
		if err != nil {
			continue
		}
		if err := ix.entries.Delete(ctx, e.ID); err != nil {
			return err
		}
	}

	for _, ev := range renames {
		m, err := platform.Stat(ev.Path)
		if err != nil {
			continue
		}
		prior, ok := removedInode[m.Inode]
		if !ok {
			continue
		}
		newRel := relPath(loc.RootPath, ev.Path)
		if err := ix.entries.Rename(ctx, prior.ID, newRel, filepath.Base(newRel)); err != nil {
			return err
		}
	}

	for _, ev := range creates {
		if err := ix.reindexPath(ctx, w, loc, prefixID, ev.Path); err != nil {
			return err
		}
	}

	for _, ev := range modifies {
		if err := ix.reindexPath(ctx, w, loc, prefixID, ev.Path); err != nil {
			return err
		}
	}

	return nil
}

// reindexPath brings a single created/modified path up to date: a new path
// is inserted under its already-known parent, an existing one has its stat
// refreshed and is re-identified if its content changed.
func (ix *Indexer) reindexPath(ctx context.Context, w *platform.Watcher, loc catalog.Location, prefixID int64, path string) error {
	m, err := platform.Stat(path)
	if err != nil {
		// Vanished again before this batch got to it; the next batch's
		// Remove event (if any) reconciles it.
		return nil
	}

	rel := relPath(loc.RootPath, path)
	we := walkEntry{RelPath: rel, Meta: m}

	if existing, err := ix.entries.FindByPath(ctx, prefixID, rel); err == nil {
		changed := existing.Size != m.Size || !existing.ModifiedAt.Equal(m.ModifiedAt)
		if !changed {
			return nil
		}
		var inode *uint64
		if m.Inode != 0 {
			v := m.Inode
			inode = &v
		}
		perm := m.Permissions
		if err := ix.entries.UpdateStat(ctx, existing.ID, m.Size, m.ModifiedAt, inode, &perm); err != nil {
			return err
		}
		if m.Kind == platform.KindFile && loc.IndexMode != catalog.IndexShallow {
			return ix.identifyOne(ctx, loc, existing.ID, we)
		}
		return nil
	}

	parent, err := ix.entries.FindByPath(ctx, prefixID, parentRelPath(rel))
	if err != nil {
		// Parent directory not yet known to the catalog; a later batch
		// picks this path back up once the parent's own Create is applied.
		return nil
	}

	id, err := ix.insertChildAt(ctx, loc, prefixID, we, parent.ID)
	if err != nil {
		return err
	}

	if m.Kind == platform.KindDirectory {
		return w.AddRoot(path)
	}
	if loc.IndexMode != catalog.IndexShallow {
		return ix.identifyOne(ctx, loc, id, we)
	}
	return nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if rel == "." {
		return ""
	}
	return rel
}
