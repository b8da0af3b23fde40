// Package errs implements the error taxonomy shared by every layer of the
// core: a closed set of sentinel kinds that cross component boundaries, plus
// a narrow cause-chain wrapper for Internal errors used only for logging.
package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is one of the abstract error categories from spec §7.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindPermission  Kind = "permission"
	KindTransientIO Kind = "transient_io"
	KindIntegrity   Kind = "integrity"
	KindCanceled    Kind = "canceled"
	KindInternal    Kind = "internal"
)

// Error is the typed error that crosses a component boundary. Field is only
// meaningful for KindValidation.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match on Kind regardless of message, so callers can write
// errors.Is(err, errs.New(errs.KindNotFound, "")) style checks.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns nil if cause is nil, matching the pkg/errors.Wrap convention
// so callers can write "return errs.TransientIO(err, ...)" as a tail
// statement without a separate nil check.
func Wrap(kind Kind, cause error, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Validation builds a field-scoped validation error (spec §4.5).
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// TransientIO returns nil if cause is nil (see Wrap).
func TransientIO(cause error, message string) error {
	return Wrap(KindTransientIO, cause, message)
}

func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }
func Permission(message string) *Error { return New(KindPermission, message) }
func Canceled(message string) *Error   { return New(KindCanceled, message) }

// Integrity wraps an invariant violation. Fatal to the job that raised it;
// the library stays usable (spec §7). Returns nil if cause is nil (see Wrap).
func Integrity(cause error, message string) error {
	return Wrap(KindIntegrity, cause, message)
}

// Internal attaches a pkg/errors stack trace to cause so an operator-facing
// log line can print "%+v" and get a trace; callers outside this package
// only ever see the opaque message (spec §7: "internal details attached as a
// cause chain for logging only"). Returns nil if cause is nil (see Wrap).
func Internal(cause error, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: KindInternal, Message: message, cause: pkgerrors.WithStack(cause)}
}

// IsRetryable reports whether err represents a transient condition that the
// caller's own bounded-backoff loop (internal/jobs) should retry.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindTransientIO
	}
	return false
}
