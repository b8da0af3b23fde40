package content

import (
	"bytes"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileType describes one recognizable file category, matching spec §4.2's
// `FileType { id, name, category, mime, extensions, magic_patterns,
// priority }`.
type FileType struct {
	ID            string
	Name          string
	Category      string
	MIME          string
	Extensions    []string
	MagicPatterns []MagicPattern
	Priority      int
}

// MagicPattern is a byte sequence expected at a given offset within the
// first few KiB of a file.
type MagicPattern struct {
	Offset int
	Bytes  []byte
}

// registry holds every FileType registered by this package's init
// functions (see magic_registry.go). Detection never switches on a
// hardcoded list of kinds; it only ever consults this registry, so adding a
// FileType never touches the detection logic itself.
var (
	registryMu sync.RWMutex
	registry   []FileType
	byExt      = map[string][]FileType{}
)

// Register adds ft to the detection registry, indexing it by every
// extension it declares. Intended to be called from package-level init
// functions only.
func Register(ft FileType) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry = append(registry, ft)
	for _, ext := range ft.Extensions {
		byExt[strings.ToLower(ext)] = append(byExt[strings.ToLower(ext)], ft)
	}
}

// magicScanWindow is how many leading bytes of a file are read for magic
// detection, per spec §4.2 ("magic-byte prefix scan (first 4 KiB)").
const magicScanWindow = 4 * 1024

// Identify resolves the FileType for a file given its name and the first
// magicScanWindow bytes of its content (head may be shorter for small
// files). Extension candidates and magic-byte matches are both considered;
// ties are broken by FileType.Priority, highest wins, matching spec §4.2's
// "extension priority + magic decides" rule for ambiguous extensions like
// `.ts`.
func Identify(name string, head []byte) (FileType, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	var candidates []FileType
	if ext != "" {
		candidates = append(candidates, byExt[ext]...)
	}

	var magicMatches []FileType
	for _, ft := range registry {
		if matchesMagic(ft.MagicPatterns, head) {
			magicMatches = append(magicMatches, ft)
		}
	}

	resolved := mergeUnique(candidates, magicMatches)
	if len(resolved) == 0 {
		return FileType{}, false
	}

	sort.Slice(resolved, func(i, j int) bool { return resolved[i].Priority > resolved[j].Priority })

	return resolved[0], true
}

func matchesMagic(patterns []MagicPattern, head []byte) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, p := range patterns {
		end := p.Offset + len(p.Bytes)
		if end > len(head) {
			return false
		}
		if !bytes.Equal(head[p.Offset:end], p.Bytes) {
			return false
		}
	}
	return true
}

func mergeUnique(lists ...[]FileType) []FileType {
	seen := make(map[string]bool)
	var out []FileType
	for _, list := range lists {
		for _, ft := range list {
			if seen[ft.ID] {
				continue
			}
			seen[ft.ID] = true
			out = append(out, ft)
		}
	}
	return out
}
