package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestWriteThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sdcored.toml")

	cfg := DefaultConfig()
	cfg.Jobs.Workers = 4
	cfg.Indexer.DefaultMode = "deep"

	require.NoError(t, Write(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Jobs.Workers)
	assert.Equal(t, "deep", loaded.Indexer.DefaultMode)
}

func TestValidateRejectsBadIndexMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Indexer.DefaultMode = "turbo"
	assert.Error(t, Validate(cfg))
}
