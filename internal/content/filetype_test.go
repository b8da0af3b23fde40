package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyByMagicBytes(t *testing.T) {
	ft, ok := Identify("photo.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00})
	require.True(t, ok)
	assert.Equal(t, "jpeg", ft.ID)
}

func TestIdentifyTSResolvesToMPEGWhenSyncByteMatches(t *testing.T) {
	head := make([]byte, 16)
	head[0] = 0x47
	ft, ok := Identify("video.ts", head)
	require.True(t, ok)
	assert.Equal(t, "mpeg_ts", ft.ID)
}

func TestIdentifyTSFallsBackToSourceWithoutMagic(t *testing.T) {
	ft, ok := Identify("component.ts", []byte("export const x = 1;"))
	require.True(t, ok)
	assert.Equal(t, "typescript_source", ft.ID)
}

func TestIdentifyUnknownReturnsFalse(t *testing.T) {
	_, ok := Identify("mystery.xyz", []byte{0x00, 0x01, 0x02})
	assert.False(t, ok)
}
