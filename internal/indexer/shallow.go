package indexer

import (
	"encoding/json"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/platform"
)

// shallowCacheTTL bounds how long a cached directory listing is trusted
// before it must be re-stat'd, since shallow-mode listings and non-indexed
// browsing are both explicitly not catalog-persisted (spec §4.4).
const shallowCacheTTL = 30 * time.Second

// ShallowCache is the ephemeral, non-persisted directory-listing cache
// shallow-mode Locations and non-indexed browsing (nonindexed.go) share: an
// in-memory buntdb keyed by directory path, with each entry self-expiring
// via buntdb's SetOptions TTL, so a listing nobody is browsing anymore is
// reclaimed automatically rather than needing an explicit eviction sweep.
type ShallowCache struct {
	db *buntdb.DB
}

func NewShallowCache() (*ShallowCache, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, errs.Internal(err, "indexer: opening shallow cache")
	}
	return &ShallowCache{db: db}, nil
}

func (c *ShallowCache) Close() error { return c.db.Close() }

// Put caches listing for dirPath.
func (c *ShallowCache) Put(dirPath string, listing []platform.Metadata) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return errs.Internal(err, "indexer: encoding shallow listing")
	}
	return c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(dirPath, string(data), &buntdb.SetOptions{Expires: true, TTL: shallowCacheTTL})
		return err
	})
}

// Get returns the cached listing for dirPath, if one is still fresh.
func (c *ShallowCache) Get(dirPath string) ([]platform.Metadata, bool) {
	var out []platform.Metadata
	err := c.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(dirPath)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), &out)
	})
	if err != nil {
		return nil, false
	}
	return out, true
}

// Invalidate drops dirPath's cached listing, e.g. once the watcher observes
// a change inside it.
func (c *ShallowCache) Invalidate(dirPath string) {
	_ = c.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(dirPath)
		return err
	})
}
