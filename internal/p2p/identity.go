// Package p2p implements L7, spec §4.7's peer transport: Ed25519 device
// identity, an ephemeral-key-exchange pairing handshake, and a
// coder/websocket-backed connection multiplexing the pairing/1, sync/1,
// rpc/1, and transfer/1 ALPN protocols over one cached connection per peer.
package p2p

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// RemoteIdentity is the stable, public identifier for a device: the hex
// SHA-256 hash of its Ed25519 public key (spec §4.7: "the public key hash
// is the stable RemoteIdentity").
type RemoteIdentity string

// IdentityOf derives the RemoteIdentity for pub.
func IdentityOf(pub ed25519.PublicKey) RemoteIdentity {
	sum := sha256.Sum256(pub)
	return RemoteIdentity(hex.EncodeToString(sum[:]))
}

// Identity is this device's long-lived keypair, persisted once and reused
// across every pairing and connection.
type Identity struct {
	Public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewIdentity generates a fresh Ed25519 keypair.
func NewIdentity() (Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, errs.Internal(err, "p2p: generating device identity")
	}
	return Identity{Public: pub, private: priv}, nil
}

// Self returns this identity's own RemoteIdentity.
func (id Identity) Self() RemoteIdentity { return IdentityOf(id.Public) }

// Sign signs msg with this device's private key, for the pairing
// handshake's key-confirmation step.
func (id Identity) Sign(msg []byte) []byte {
	return ed25519.Sign(id.private, msg)
}

// Verify checks sig against msg under pub.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(pub, msg, sig)
}
