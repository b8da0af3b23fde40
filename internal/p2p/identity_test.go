package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentitySelfIsStableHashOfPublicKey(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	assert.Equal(t, IdentityOf(id.Public), id.Self())
	assert.Len(t, string(id.Self()), 64) // hex-encoded SHA-256
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	msg := []byte("pairing handshake")
	sig := id.Sign(msg)
	assert.True(t, Verify(id.Public, msg, sig))
	assert.False(t, Verify(id.Public, []byte("tampered"), sig))
}

func TestDistinctIdentitiesHaveDistinctSelf(t *testing.T) {
	a, err := NewIdentity()
	require.NoError(t, err)
	b, err := NewIdentity()
	require.NoError(t, err)

	assert.NotEqual(t, a.Self(), b.Self())
}
