package indexer

import (
	"os"
	"path/filepath"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/platform"
)

// BrowseNonIndexed implements the feature supplemented from
// original_source/core/src/location/non_indexed.rs: a read-only,
// single-directory listing for a path that isn't part of any indexed
// Location, for a file browser UI to peek into e.g. a freshly attached USB
// volume before the user decides whether to add it as a Location. Results
// share ShallowCache with shallow-mode Locations, since both serve the same
// "list without committing to the catalog" need.
func (ix *Indexer) BrowseNonIndexed(dirPath string) ([]platform.Metadata, error) {
	if cached, ok := ix.shallow.Get(dirPath); ok {
		return cached, nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, errs.TransientIO(err, "indexer: reading directory "+dirPath)
	}

	listing := make([]platform.Metadata, 0, len(entries))
	for _, e := range entries {
		m, err := platform.Stat(filepath.Join(dirPath, e.Name()))
		if err != nil {
			continue
		}
		listing = append(listing, m)
	}

	if err := ix.shallow.Put(dirPath, listing); err != nil {
		ix.log.Warn("indexer: caching non-indexed listing", "path", dirPath, "error", err)
	}

	return listing, nil
}
