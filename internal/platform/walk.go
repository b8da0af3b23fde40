package platform

import (
	"context"
	"os"

	"github.com/karrick/godirwalk"
)

// WalkRule decides whether a directory's subtree should be descended into.
// The indexer implements this for include/exclude globs, minimum size, max
// depth, and marker-child rules (spec §4.4); platform only needs the
// boolean so the subtree can be short-circuited at the walk layer itself
// rather than after every child has already been stat'd.
type WalkRule func(path string, m Metadata) bool

// WalkFunc receives every entry the walk visits, post-rule-filtering.
type WalkFunc func(m Metadata) error

// Walk enumerates the directory tree rooted at root, breadth-first in
// spirit (godirwalk itself walks depth-first per directory but visits
// siblings before recursing, which is what the indexer's batching relies
// on). For each visited item it collects the same
// (path, inode, kind, size, mtime, ctime, permissions) tuple Stat returns.
//
// rule is consulted for every directory before its children are read; a
// false return skips the subtree entirely, never touching its children's
// inodes. Passing a nil rule walks everything.
func Walk(ctx context.Context, root string, rule WalkRule, fn WalkFunc) error {
	options := &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			fi, err := os.Lstat(path)
			if err != nil {
				// Entry vanished between directory read and stat; the
				// indexer's reconcile phase treats a later disappearance
				// as a delete, so skip it here rather than failing the
				// whole walk.
				if os.IsNotExist(err) {
					return godirwalk.SkipThis
				}
				return err
			}

			m := metadataFromFileInfo(path, fi)

			if de.IsDir() && rule != nil && !rule(path, m) {
				return godirwalk.SkipThis
			}

			return fn(m)
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			// A single unreadable directory (permission denied, removed
			// mid-walk) should not abort indexing of the rest of the
			// location; it surfaces as a non-critical error upstream.
			return godirwalk.SkipNode
		},
	}

	return godirwalk.Walk(root, options)
}
