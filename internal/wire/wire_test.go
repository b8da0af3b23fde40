package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))
	require.NoError(t, WriteFrame(&buf, []byte("world")))

	got1, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got1))

	got2, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "world", string(got2))

	_, err = ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, make([]byte, MaxFrameSize+1))
	assert.Error(t, err)
}

func TestValueRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := Request{Kind: RequestAction, Name: "library.create", Session: "sess-1"}
	require.NoError(t, WriteValue(&buf, req))

	var got Request
	require.NoError(t, ReadValue(&buf, &got))
	assert.Equal(t, req, got)
}

func TestHLCOrdering(t *testing.T) {
	a := HLC{PhysicalMs: 100, Counter: 0, DeviceUUID: "a"}
	b := HLC{PhysicalMs: 100, Counter: 1, DeviceUUID: "a"}
	c := HLC{PhysicalMs: 100, Counter: 1, DeviceUUID: "b"}

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.False(t, c.Before(a))
}
