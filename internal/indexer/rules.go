package indexer

import (
	"path/filepath"

	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/spacedriveapp/sdcore/internal/platform"
)

// ExcludeRules names directories an indexed Location's walk never descends
// into (spec §4.4's walk-rule short-circuit).
type ExcludeRules struct {
	// Names are directory basenames skipped outright, wherever found.
	Names []string
	// Globs are filepath.Match patterns evaluated against the full path.
	Globs []string
}

// DefaultExcludeRules mirrors the directories any local-first file manager
// conventionally ignores: VCS metadata, package manager caches, OS trash.
var DefaultExcludeRules = ExcludeRules{
	Names: []string{".git", ".hg", ".svn", "node_modules", ".Trash", "$RECYCLE.BIN", ".spacedrive"},
}

// rejectedFilterSize bounds the cuckoo filter's backing table; a location
// with far more excluded directories than this just sees more false
// negatives (falls through to the slow path), never a false "must index".
const rejectedFilterSize = 1 << 16

// RuleSet evaluates ExcludeRules against a walk, backed by a cuckoo filter
// cache of paths already proven excluded. A walk that revisits the same
// huge excluded subtree (an incremental re-walk hitting node_modules again)
// pays the glob/name comparison cost once per distinct path rather than
// once per visit, the cache a plain boolean predicate can't offer without
// unbounded memory growth — a cuckoo filter trades a small, bounded false
// positive rate (treating a handful of never-excluded paths as excluded)
// for O(1) space independent of tree size.
type RuleSet struct {
	rules    ExcludeRules
	rejected *cuckoo.Filter
}

func NewRuleSet(rules ExcludeRules) *RuleSet {
	return &RuleSet{rules: rules, rejected: cuckoo.NewFilter(rejectedFilterSize)}
}

// Allow implements platform.WalkRule: false short-circuits path's entire
// subtree before any child is read from disk.
func (rs *RuleSet) Allow(path string, m platform.Metadata) bool {
	if rs.rejected.Lookup([]byte(path)) {
		return false
	}

	name := filepath.Base(path)
	for _, n := range rs.rules.Names {
		if name == n {
			rs.rejected.InsertUnique([]byte(path))
			return false
		}
	}
	for _, g := range rs.rules.Globs {
		if ok, _ := filepath.Match(g, path); ok {
			rs.rejected.InsertUnique([]byte(path))
			return false
		}
	}
	return true
}
