// Package wire implements the framing and envelope codec spec §6 uses for
// both the daemon RPC surface and the sync/1 P2P protocol: a 4-byte
// little-endian length prefix followed by a MessagePack-encoded payload.
// Framing lives here so internal/p2p and the daemon's RPC listener share one
// implementation instead of each hand-rolling its own length-prefix loop.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// MaxFrameSize bounds a single frame's payload, guarding a misbehaving or
// malicious peer from making a reader allocate an unbounded buffer off a
// forged length prefix.
const MaxFrameSize = 256 << 20 // 256MiB, above transfer/1's largest block size

// WriteFrame writes payload to w prefixed with its length as 4 bytes
// little-endian, per spec §6's wire format.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return errs.Validation("", "wire: frame payload exceeds max frame size")
	}
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return errs.TransientIO(err, "wire: writing frame header")
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return errs.TransientIO(err, "wire: writing frame payload")
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, errs.TransientIO(err, "wire: reading frame header")
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, errs.Validation("", "wire: frame header exceeds max frame size")
	}
	if n == 0 {
		return nil, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errs.TransientIO(err, "wire: reading frame payload")
	}
	return payload, nil
}
