package indexer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spacedriveapp/sdcore/internal/catalog"
	"github.com/spacedriveapp/sdcore/internal/platform"
)

// parentRelPath returns the relative path of w's parent directory, or ""
// for a direct child of the Location root.
func parentRelPath(relPath string) string {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return ""
	}
	return dir
}

func (ix *Indexer) insertRoot(ctx context.Context, loc catalog.Location, prefixID int64, w walkEntry) (int64, error) {
	return ix.entries.UpsertRoot(ctx, ix.newEntry(loc, prefixID, w))
}

func (ix *Indexer) insertChildAt(ctx context.Context, loc catalog.Location, prefixID int64, w walkEntry, parentID int64) (int64, error) {
	return ix.entries.InsertChild(ctx, ix.newEntry(loc, prefixID, w), parentID)
}

func (ix *Indexer) newEntry(loc catalog.Location, prefixID int64, w walkEntry) *catalog.Entry {
	name := filepath.Base(w.RelPath)
	if w.RelPath == "" {
		name = filepath.Base(loc.RootPath)
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")

	var inode *uint64
	if w.Meta.Inode != 0 {
		v := w.Meta.Inode
		inode = &v
	}
	perm := w.Meta.Permissions

	var locationID *string
	if w.RelPath == "" {
		id := loc.ID
		locationID = &id
	}

	return &catalog.Entry{
		UUID:         uuid.NewString(),
		DeviceID:     loc.DeviceID,
		PrefixID:     prefixID,
		RelativePath: w.RelPath,
		Name:         name,
		Extension:    ext,
		Kind:         entryKind(w.Meta.Kind),
		Size:         w.Meta.Size,
		CreatedAt:    w.Meta.ModifiedAt,
		ModifiedAt:   w.Meta.ModifiedAt,
		Inode:        inode,
		Permissions:  &perm,
		LocationID:   locationID,
	}
}

func entryKind(k platform.Kind) catalog.EntryKind {
	switch k {
	case platform.KindDirectory:
		return catalog.EntryDirectory
	case platform.KindSymlink:
		return catalog.EntrySymlink
	default:
		return catalog.EntryFile
	}
}
