package p2p

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/nacl/box"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// PairedPeer is a trusted remote device persisted after a successful
// pairing handshake.
type PairedPeer struct {
	RemoteIdentity RemoteIdentity
	PublicKey      ed25519.PublicKey
	Name           string
}

// Handshake holds one side's ephemeral state for a single pairing attempt.
// Spec §4.7: "the initiator displays a short human-readable code derived
// from an ephemeral key exchange; the joiner enters or scans the code;
// both sides perform a key-confirmed handshake."
type Handshake struct {
	identity      Identity
	ephemeralPub  *[32]byte
	ephemeralPriv *[32]byte
}

// BeginHandshake generates this side's ephemeral X25519 keypair. Both the
// initiator and the joiner call this symmetrically.
func BeginHandshake(identity Identity) (*Handshake, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errs.Internal(err, "p2p: generating ephemeral pairing key")
	}
	return &Handshake{identity: identity, ephemeralPub: pub, ephemeralPriv: priv}, nil
}

// EphemeralPublicKey is exchanged with the peer out of band (QR code,
// local discovery) before either side can compute a shared secret.
func (h *Handshake) EphemeralPublicKey() *[32]byte { return h.ephemeralPub }

// SignEphemeralKey signs our ephemeral public key with our long-lived
// Ed25519 identity, binding the ephemeral exchange to a durable identity
// so a MITM can't simply substitute its own ephemeral key.
func (h *Handshake) SignEphemeralKey() []byte {
	return h.identity.Sign(h.ephemeralPub[:])
}

// ConfirmationCode computes the 6-digit code derived from the shared
// secret with peerEphemeralPub, after verifying peerSig over
// peerEphemeralPub under peerIdentityPub. Both sides compute the same
// code from the same Diffie-Hellman secret; the UI displays it on both
// screens for the user to confirm before Complete persists trust.
func (h *Handshake) ConfirmationCode(peerEphemeralPub *[32]byte, peerIdentityPub ed25519.PublicKey, peerSig []byte) (string, error) {
	if !Verify(peerIdentityPub, peerEphemeralPub[:], peerSig) {
		return "", errs.Permission("p2p: pairing signature verification failed")
	}
	var shared [32]byte
	box.Precompute(&shared, peerEphemeralPub, h.ephemeralPriv)

	sum := sha256.Sum256(shared[:])
	code := (uint32(sum[0])<<16 | uint32(sum[1])<<8 | uint32(sum[2])) % 1_000_000
	return fmt.Sprintf("%06d", code), nil
}

// Complete persists trust in the peer once the user has confirmed matching
// confirmation codes on both devices.
func (h *Handshake) Complete(peerIdentityPub ed25519.PublicKey, name string) PairedPeer {
	return PairedPeer{RemoteIdentity: IdentityOf(peerIdentityPub), PublicKey: peerIdentityPub, Name: name}
}
