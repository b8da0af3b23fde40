// Package platform implements L0 filesystem I/O: metadata extraction, tree
// walking, and OS-native watcher wiring. Every other layer reaches the disk
// through this package rather than calling os.* directly, the way the
// teacher's drive session code kept all Graph API calls behind one client.
package platform

import (
	"io/fs"
	"os"
	"time"
)

// Kind mirrors the Entry.kind enum from the catalog: what a walked item
// turned out to be.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindSymlink   Kind = "symlink"
)

// Metadata is the raw (path, inode, kind, size, mtime, ctime, permissions)
// tuple the indexer's Walk phase collects for every entry, before any
// catalog row exists for it.
type Metadata struct {
	Path        string
	Kind        Kind
	Size        int64
	Inode       uint64
	Permissions uint32
	ModifiedAt  time.Time
	ChangedAt   time.Time
	AccessedAt  time.Time
}

// Stat reads Metadata for a single path. It does not follow symlinks —
// callers that need to distinguish a broken symlink from its target call
// Stat again on the resolved target themselves.
func Stat(path string) (Metadata, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Metadata{}, err
	}
	return metadataFromFileInfo(path, fi), nil
}

// metadataFromFileInfo does the portable half of the conversion; the
// platform-specific inode/ctime/atime extraction lives in stat_unix.go and
// stat_windows.go.
func metadataFromFileInfo(path string, fi fs.FileInfo) Metadata {
	m := Metadata{
		Path:       path,
		Size:       fi.Size(),
		ModifiedAt: fi.ModTime(),
		Kind:       kindOf(fi),
	}
	fillPlatformFields(&m, fi)
	return m
}

func kindOf(fi fs.FileInfo) Kind {
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		return KindSymlink
	case fi.IsDir():
		return KindDirectory
	default:
		return KindFile
	}
}
