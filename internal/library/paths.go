package library

import "path/filepath"

// dir returns the on-disk root for library id under dataDir, per spec §6's
// on-disk layout: one subdirectory per library holding library.db,
// config.json, sidecars/, and jobs/.
func dir(dataDir, id string) string {
	return filepath.Join(dataDir, "libraries", id)
}

// catalogPath is library.db — the same physical file internal/catalog and
// internal/syncengine open as two independent *sql.DB handles over two
// logical schemas, per SPEC_FULL.md's dependency-wiring note.
func catalogPath(libDir string) string {
	return filepath.Join(libDir, "library.db")
}

func configPath(libDir string) string {
	return filepath.Join(libDir, "config.json")
}

func sidecarsDir(libDir string) string {
	return filepath.Join(libDir, "sidecars")
}

func jobsDir(libDir string) string {
	return filepath.Join(libDir, "jobs")
}

// checkpointDir holds the badger-backed jobs.Store used to persist paused
// job parameters for resume, nested under jobs/ per spec §6.
func checkpointDir(libDir string) string {
	return filepath.Join(jobsDir(libDir), "checkpoints")
}
