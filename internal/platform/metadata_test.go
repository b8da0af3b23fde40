package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	m, err := Stat(path)
	require.NoError(t, err)

	assert.Equal(t, KindFile, m.Kind)
	assert.EqualValues(t, 5, m.Size)
	assert.NotZero(t, m.Inode)
}

func TestStatDirectory(t *testing.T) {
	dir := t.TempDir()

	m, err := Stat(dir)
	require.NoError(t, err)

	assert.Equal(t, KindDirectory, m.Kind)
}

func TestStatSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	m, err := Stat(link)
	require.NoError(t, err)
	assert.Equal(t, KindSymlink, m.Kind)
}
