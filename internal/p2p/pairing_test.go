package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeProducesMatchingConfirmationCodesOnBothSides(t *testing.T) {
	initiatorID, err := NewIdentity()
	require.NoError(t, err)
	joinerID, err := NewIdentity()
	require.NoError(t, err)

	initiator, err := BeginHandshake(initiatorID)
	require.NoError(t, err)
	joiner, err := BeginHandshake(joinerID)
	require.NoError(t, err)

	// Out-of-band exchange: each side learns the other's ephemeral public
	// key and signature over it.
	initiatorCode, err := initiator.ConfirmationCode(joiner.EphemeralPublicKey(), joinerID.Public, joiner.SignEphemeralKey())
	require.NoError(t, err)

	joinerCode, err := joiner.ConfirmationCode(initiator.EphemeralPublicKey(), initiatorID.Public, initiator.SignEphemeralKey())
	require.NoError(t, err)

	assert.Equal(t, initiatorCode, joinerCode)
	assert.Len(t, initiatorCode, 6)
}

func TestHandshakeRejectsForgedSignature(t *testing.T) {
	initiatorID, err := NewIdentity()
	require.NoError(t, err)
	joinerID, err := NewIdentity()
	require.NoError(t, err)
	attackerID, err := NewIdentity()
	require.NoError(t, err)

	initiator, err := BeginHandshake(initiatorID)
	require.NoError(t, err)
	joiner, err := BeginHandshake(joinerID)
	require.NoError(t, err)

	forgedSig := attackerID.Sign(joiner.EphemeralPublicKey()[:])
	_, err = initiator.ConfirmationCode(joiner.EphemeralPublicKey(), joinerID.Public, forgedSig)
	assert.Error(t, err)
}

func TestCompleteDerivesRemoteIdentityFromPublicKey(t *testing.T) {
	initiatorID, err := NewIdentity()
	require.NoError(t, err)
	joinerID, err := NewIdentity()
	require.NoError(t, err)

	initiator, err := BeginHandshake(initiatorID)
	require.NoError(t, err)

	peer := initiator.Complete(joinerID.Public, "joiner-device")
	assert.Equal(t, IdentityOf(joinerID.Public), peer.RemoteIdentity)
	assert.Equal(t, "joiner-device", peer.Name)
}
