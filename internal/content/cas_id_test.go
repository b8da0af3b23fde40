package content

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCASIDSmallFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	id1, err := CASID(path, 11)
	require.NoError(t, err)
	id2, err := CASID(path, 11)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, casIDHexLen)
}

func TestCASIDDifferentSizeDifferentID(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.bin")
	pathB := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(pathA, []byte("same-bytes"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("same-bytes"), 0o644))

	idA, err := CASID(pathA, 10)
	require.NoError(t, err)
	idB, err := CASID(pathB, 10)
	require.NoError(t, err)

	assert.Equal(t, idA, idB, "identical size and content must produce identical cas_id")
}

func TestCASIDLargeFileSamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "large.bin")

	size := int64(minimumFileSize) + 1024*1024
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	id1, err := CASID(path, size)
	require.NoError(t, err)
	id2, err := CASID(path, size)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, casIDHexLen)
}

func TestCASIDBoundarySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boundary.bin")

	data := make([]byte, minimumFileSize)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := CASID(path, minimumFileSize)
	require.NoError(t, err)
}
