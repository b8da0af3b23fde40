package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkVisitsAllEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bb"), 0o644))

	var paths []string
	err := Walk(context.Background(), root, nil, func(m Metadata) error {
		paths = append(paths, m.Path)
		return nil
	})
	require.NoError(t, err)

	assert.Contains(t, paths, filepath.Join(root, "a.txt"))
	assert.Contains(t, paths, filepath.Join(root, "sub"))
	assert.Contains(t, paths, filepath.Join(root, "sub", "b.txt"))
}

func TestWalkRuleSkipsSubtree(t *testing.T) {
	root := t.TempDir()
	excluded := filepath.Join(root, "node_modules")
	require.NoError(t, os.MkdirAll(excluded, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(excluded, "dep.js"), []byte("x"), 0o644))

	rule := func(path string, m Metadata) bool {
		return filepath.Base(path) != "node_modules"
	}

	var paths []string
	err := Walk(context.Background(), root, rule, func(m Metadata) error {
		paths = append(paths, m.Path)
		return nil
	})
	require.NoError(t, err)

	assert.NotContains(t, paths, filepath.Join(excluded, "dep.js"))
}
