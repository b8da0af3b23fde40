package platform

import (
	"io/fs"
	"syscall"
	"time"
)

// fillPlatformFields extracts inode, permission bits, ctime, and atime from
// the syscall.Stat_t embedded in fs.FileInfo.Sys() on macOS.
func fillPlatformFields(m *Metadata, fi fs.FileInfo) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}

	m.Inode = st.Ino
	m.Permissions = uint32(fi.Mode().Perm())
	m.ChangedAt = time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec)
	m.AccessedAt = time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec)
}
