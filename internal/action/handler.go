package action

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// Handler is implemented by every CoreAction, CoreQuery, LibraryAction, and
// LibraryQuery spec §4.5 names. The four differ only in Kind(): the
// Registry uses it to reject a Library-scoped call against a session with
// no library open, and to pick which hooks apply.
type Handler interface {
	Name() string
	Kind() Kind
	Execute(ctx context.Context, sess SessionContext, payload wire.RawMessage) (any, error)
}

// HandlerFunc adapts a plain function to Handler for the common case of a
// stateless handler closing over whatever repositories it needs.
type HandlerFunc struct {
	HandlerName string
	HandlerKind Kind
	Fn          func(ctx context.Context, sess SessionContext, payload wire.RawMessage) (any, error)
}

func (f HandlerFunc) Name() string { return f.HandlerName }
func (f HandlerFunc) Kind() Kind   { return f.HandlerKind }

func (f HandlerFunc) Execute(ctx context.Context, sess SessionContext, payload wire.RawMessage) (any, error) {
	return f.Fn(ctx, sess, payload)
}

// payloadValidator is shared by every handler that decodes its payload into
// a struct tagged with `validate:"..."` rules (spec §4.5's "validate" stage).
var payloadValidator = validator.New()

// Decode unmarshals payload into v and runs struct-tag validation, the
// first stage of the validate → pre-hooks → execute → post-hooks pipeline.
// Handlers call this themselves at the top of Execute rather than the
// Registry doing it generically, since only the handler knows v's type.
func Decode(payload wire.RawMessage, v any) error {
	if err := wire.Unmarshal(payload, v); err != nil {
		return err
	}
	if err := payloadValidator.Struct(v); err != nil {
		return errs.Wrap(errs.KindValidation, err, "action: validating payload")
	}
	return nil
}
