package wire

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// RawMessage delays MessagePack decoding the way encoding/json.RawMessage
// delays JSON decoding: an envelope field whose concrete shape is only known
// once its sibling "kind"/"name" field has been read.
type RawMessage = msgpack.RawMessage

// Marshal encodes v as MessagePack.
func Marshal(v any) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errs.Internal(err, "wire: marshal")
	}
	return b, nil
}

// Unmarshal decodes MessagePack-encoded data into v.
func Unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return errs.Wrap(errs.KindValidation, err, "wire: unmarshal")
	}
	return nil
}

// WriteValue marshals v and writes it to w as one length-prefixed frame.
func WriteValue(w io.Writer, v any) error {
	b, err := Marshal(v)
	if err != nil {
		return err
	}
	return WriteFrame(w, b)
}

// ReadValue reads one length-prefixed frame from r and decodes it into v.
func ReadValue(r io.Reader, v any) error {
	b, err := ReadFrame(r)
	if err != nil {
		return err
	}
	return Unmarshal(b, v)
}
