package platform

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// WatchOp is the normalized set of filesystem change operations this
// package exposes to callers, collapsing each OS watcher backend's native
// event vocabulary (inotify masks on Linux, FSEvents flags on macOS,
// ReadDirectoryChangesW codes on Windows — fsnotify already does this
// first pass for us) onto one small enum the indexer's batcher consumes.
type WatchOp uint8

const (
	OpCreate WatchOp = iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// WatchEvent is one normalized filesystem change, emitted on WatchRaw's
// channel ahead of the indexer's own batching and rename-pairing layer.
type WatchEvent struct {
	Path string
	Op   WatchOp
}

// Watcher wraps an fsnotify.Watcher to recursively watch a directory tree.
// fsnotify only watches the directories explicitly added to it, so Watcher
// walks the tree once at Add time and adds every directory found.
type Watcher struct {
	fs     *fsnotify.Watcher
	Events chan WatchEvent
	Errors chan error
}

// NewWatcher starts a Watcher with no roots yet added.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("platform: creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fs:     fw,
		Events: make(chan WatchEvent, 256),
		Errors: make(chan error, 16),
	}

	go w.pump()

	return w, nil
}

// AddRoot walks root and registers every directory (including root itself)
// with the underlying watcher. New directories created later are picked up
// via the OpCreate event handling in the indexer's batcher, which calls
// AddRoot again on the new path.
func (w *Watcher) AddRoot(root string) error {
	var dirs []string
	err := Walk(context.Background(), root, nil, func(m Metadata) error {
		if m.Kind == KindDirectory {
			dirs = append(dirs, m.Path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("platform: enumerating directories under %s: %w", root, err)
	}

	dirs = append(dirs, root)

	for _, d := range dirs {
		if err := w.fs.Add(d); err != nil {
			return fmt.Errorf("platform: watching %s: %w", d, err)
		}
	}

	return nil
}

// RemoveRoot stops watching every directory under root that the underlying
// watcher currently knows about.
func (w *Watcher) RemoveRoot(root string) {
	for _, d := range w.fs.WatchList() {
		if d == root || isUnder(root, d) {
			_ = w.fs.Remove(d)
		}
	}
}

func (w *Watcher) Close() error {
	close(w.Events)
	return w.fs.Close()
}

func (w *Watcher) pump() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.Events <- WatchEvent{Path: ev.Name, Op: normalizeOp(ev.Op)}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
				// Error channel full: drop rather than block the pump,
				// matching the bounded-channel policy used throughout the
				// event bus.
			}
		}
	}
}

func normalizeOp(op fsnotify.Op) WatchOp {
	switch {
	case op&fsnotify.Create != 0:
		return OpCreate
	case op&fsnotify.Remove != 0:
		return OpRemove
	case op&fsnotify.Rename != 0:
		return OpRename
	case op&fsnotify.Chmod != 0:
		return OpChmod
	default:
		return OpWrite
	}
}

func isUnder(root, path string) bool {
	if len(path) <= len(root) {
		return false
	}
	return path[:len(root)] == root && path[len(root)] == '/'
}
