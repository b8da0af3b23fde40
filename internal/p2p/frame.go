package p2p

import (
	"bufio"
	"io"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// taggedFrame is SPEC_FULL.md's multiplexing layer: a 1-byte protocol tag
// followed by internal/wire's 4-byte length prefix + payload, letting one
// coder/websocket connection per peer stand in for spec §4.7's "one
// persistent connection, many lightweight streams."
type taggedFrame struct {
	Protocol Protocol
	Payload  []byte
}

func writeTaggedFrame(w io.Writer, f taggedFrame) error {
	if _, err := w.Write([]byte{byte(f.Protocol)}); err != nil {
		return errs.TransientIO(err, "p2p: writing protocol tag")
	}
	return wire.WriteFrame(w, f.Payload)
}

func readTaggedFrame(r *bufio.Reader) (taggedFrame, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return taggedFrame{}, errs.TransientIO(err, "p2p: reading protocol tag")
	}
	payload, err := wire.ReadFrame(r)
	if err != nil {
		return taggedFrame{}, err
	}
	return taggedFrame{Protocol: Protocol(tag), Payload: payload}, nil
}
