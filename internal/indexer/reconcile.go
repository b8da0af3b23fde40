package indexer

import (
	"context"

	"github.com/spacedriveapp/sdcore/internal/catalog"
	"github.com/spacedriveapp/sdcore/internal/platform"
)

// reconciledEntry is one surviving path after phase 2, keyed by the
// Location-relative path the walk reported it at.
type reconciledEntry struct {
	EntryID int64
	Meta    platform.Metadata
	// Changed marks a path that is new or whose stat changed this pass,
	// the set the Identify phase needs to (re-)hash.
	Changed bool
}

type reconcileResult map[string]reconciledEntry

// reconcile implements spec §4.4's phase 2: diff the walk's observed set
// against the catalog's existing view of loc, inserting new paths,
// updating changed ones, and deleting vanished ones — all via the
// catalog's closure-table-maintaining repository methods, never a
// hand-rolled tree diff against raw rows.
func (ix *Indexer) reconcile(ctx context.Context, loc catalog.Location, walked []walkEntry) (reconcileResult, error) {
	prefixID, err := ix.prefixes.EnsureID(ctx, loc.DeviceID, loc.RootPath)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]walkEntry, len(walked))
	for _, w := range walked {
		byPath[w.RelPath] = w
	}

	if loc.RootEntryID == nil {
		return ix.insertFresh(ctx, loc, prefixID, walked)
	}

	existing, err := ix.entries.Subtree(ctx, *loc.RootEntryID, true)
	if err != nil {
		return nil, err
	}

	existingByPath := make(map[string]catalog.Entry, len(existing))
	idByPath := map[string]int64{"": *loc.RootEntryID}
	for _, e := range existing {
		existingByPath[e.RelativePath] = e
		idByPath[e.RelativePath] = e.ID
	}

	for relPath, e := range existingByPath {
		if relPath == "" {
			continue
		}
		if _, stillPresent := byPath[relPath]; !stillPresent {
			if err := ix.entries.Delete(ctx, e.ID); err != nil {
				return nil, err
			}
		}
	}

	result := make(reconcileResult, len(walked))

	for _, w := range walked {
		prior, known := existingByPath[w.RelPath]
		if !known {
			continue
		}

		changed := prior.Size != w.Meta.Size || !prior.ModifiedAt.Equal(w.Meta.ModifiedAt)
		if changed {
			var inode *uint64
			if w.Meta.Inode != 0 {
				v := w.Meta.Inode
				inode = &v
			}
			perm := w.Meta.Permissions
			if err := ix.entries.UpdateStat(ctx, prior.ID, w.Meta.Size, w.Meta.ModifiedAt, inode, &perm); err != nil {
				return nil, err
			}
		}

		result[w.RelPath] = reconciledEntry{EntryID: prior.ID, Meta: w.Meta, Changed: changed}
	}

	// New paths, inserted parent-first — walked is already in
	// parent-before-child order (platform.Walk visits a directory before
	// recursing into it), so each child's parent is already in idByPath.
	for _, w := range walked {
		if w.RelPath == "" {
			continue
		}
		if _, known := existingByPath[w.RelPath]; known {
			continue
		}

		parentID, ok := idByPath[parentRelPath(w.RelPath)]
		if !ok {
			continue
		}

		id, err := ix.insertChildAt(ctx, loc, prefixID, w, parentID)
		if err != nil {
			return nil, err
		}
		idByPath[w.RelPath] = id
		result[w.RelPath] = reconciledEntry{EntryID: id, Meta: w.Meta, Changed: true}
	}

	return result, nil
}

func (ix *Indexer) insertFresh(ctx context.Context, loc catalog.Location, prefixID int64, walked []walkEntry) (reconcileResult, error) {
	result := make(reconcileResult, len(walked))
	idByPath := make(map[string]int64, len(walked))

	for _, w := range walked {
		if w.RelPath == "" {
			id, err := ix.insertRoot(ctx, loc, prefixID, w)
			if err != nil {
				return nil, err
			}
			if err := ix.locations.SetRootEntry(ctx, loc.ID, id); err != nil {
				return nil, err
			}
			idByPath[""] = id
			result[""] = reconciledEntry{EntryID: id, Meta: w.Meta, Changed: true}
			continue
		}

		parentID, ok := idByPath[parentRelPath(w.RelPath)]
		if !ok {
			continue
		}

		id, err := ix.insertChildAt(ctx, loc, prefixID, w, parentID)
		if err != nil {
			return nil, err
		}
		idByPath[w.RelPath] = id
		result[w.RelPath] = reconciledEntry{EntryID: id, Meta: w.Meta, Changed: true}
	}

	return result, nil
}
