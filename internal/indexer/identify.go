package indexer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spacedriveapp/sdcore/internal/catalog"
	"github.com/spacedriveapp/sdcore/internal/content"
	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/jobs"
	"github.com/spacedriveapp/sdcore/internal/platform"
)

// magicScanWindow matches content.Identify's own documented scan window.
const magicScanWindow = 4 * 1024

// identify implements spec §4.4's phase 3: for every new or changed file
// left by reconcile, compute its cas_id and resolve a FileType, then
// transition the entry's content_id, deduping against any other entry that
// already shares the same (size, cas_id).
func (ix *Indexer) identify(ctx context.Context, job *jobs.Job, loc catalog.Location, reconciled reconcileResult) error {
	for relPath, re := range reconciled {
		if relPath == "" || !re.Changed || re.Meta.Kind != platform.KindFile {
			continue
		}
		if err := job.Interrupter.WaitIfPaused(); err != nil {
			return err
		}
		if err := ix.identifyOne(ctx, loc, re.EntryID, walkEntry{RelPath: relPath, Meta: re.Meta}); err != nil {
			return err
		}
	}
	return nil
}

// identifyOne hashes and filetype-resolves a single file, used both by the
// batch identify phase and the watcher's incremental path (watcher.go).
func (ix *Indexer) identifyOne(ctx context.Context, loc catalog.Location, entryID int64, w walkEntry) error {
	path := filepath.Join(loc.RootPath, w.RelPath)

	casID, err := content.CASID(path, w.Meta.Size)
	if err != nil {
		// The file vanished or became unreadable between reconcile and
		// identify; the next incremental pass reconciles its removal if
		// it's actually gone.
		return nil
	}

	var kind, mime string
	if head, err := readHead(path, magicScanWindow); err == nil {
		if ft, ok := content.Identify(filepath.Base(w.RelPath), head); ok {
			kind, mime = ft.Category, ft.MIME
		}
	}
	ext := strings.TrimPrefix(filepath.Ext(w.RelPath), ".")

	if _, err := ix.entries.SetContentID(ctx, entryID, loc.LibraryID, loc.DeviceID, uuid.NewString(), casID, w.Meta.Size, kind, mime, ext); err != nil {
		return errs.TransientIO(err, "indexer: setting content id for "+path)
	}
	return nil
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	got, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:got], nil
}
