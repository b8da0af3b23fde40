package indexer

import (
	"context"

	"github.com/spacedriveapp/sdcore/internal/catalog"
	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/jobs"
	"github.com/spacedriveapp/sdcore/internal/platform"
)

// walkEntry is one item the walk phase observed, keyed by its path relative
// to the Location's root.
type walkEntry struct {
	RelPath string
	Meta    platform.Metadata
}

// walk performs spec §4.4's phase 1: enumerate every path under loc.RootPath
// that survives the RuleSet, respecting pause/cancellation between items the
// way every other multi-item Task in this codebase does via
// job.Interrupter.WaitIfPaused.
func (ix *Indexer) walk(ctx context.Context, job *jobs.Job, loc catalog.Location) ([]walkEntry, error) {
	var out []walkEntry

	rule := func(path string, m platform.Metadata) bool {
		return ix.rules.Allow(path, m)
	}

	err := platform.Walk(ctx, loc.RootPath, rule, func(m platform.Metadata) error {
		if err := job.Interrupter.WaitIfPaused(); err != nil {
			return err
		}

		out = append(out, walkEntry{RelPath: relPath(loc.RootPath, m.Path), Meta: m})
		return nil
	})
	if err != nil {
		return nil, errs.TransientIO(err, "indexer: walking location "+loc.RootPath)
	}

	return out, nil
}
