package action

import (
	"context"
	"errors"
	"sync"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// PreHook runs after a Handler is resolved but before Execute; returning an
// error short-circuits the call straight to errorResponse, the way the
// teacher's sync Engine runs a pre-flight token-refresh check before every
// Graph call.
type PreHook func(ctx context.Context, sess SessionContext, h Handler, payload wire.RawMessage) error

// PostHook observes the outcome of every dispatch, win or lose, for
// cross-cutting concerns like telemetry and audit logging.
type PostHook func(ctx context.Context, sess SessionContext, h Handler, output any, err error)

// Registry is the one place every CoreAction/CoreQuery/LibraryAction/
// LibraryQuery in the running core is registered, and the only entry point
// a transport (daemon RPC, CLI-over-loopback, P2P rpc/1) dispatches through.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	pre      []PreHook
	post     []PostHook
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h, keyed by its Name(). Registering two handlers under the
// same name is a programming error and panics at startup rather than
// silently shadowing one of them.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[h.Name()]; exists {
		panic("action: duplicate handler registration for " + h.Name())
	}
	r.handlers[h.Name()] = h
}

// Use appends pre-dispatch hooks, run in registration order.
func (r *Registry) Use(hooks ...PreHook) {
	r.pre = append(r.pre, hooks...)
}

// UsePost appends post-dispatch hooks, run in registration order.
func (r *Registry) UsePost(hooks ...PostHook) {
	r.post = append(r.post, hooks...)
}

// Dispatch resolves req.Name, enforces the library-scope rule, then runs
// the validate (inside h.Execute) → pre-hooks → execute → post-hooks
// pipeline spec §4.5 describes, returning a wire.Response ready to frame
// back to the caller.
func (r *Registry) Dispatch(ctx context.Context, sess SessionContext, req wire.Request) wire.Response {
	r.mu.RLock()
	h, ok := r.handlers[req.Name]
	r.mu.RUnlock()
	if !ok {
		return errorResponse(errs.NotFound("action: unknown handler " + req.Name))
	}

	if (h.Kind() == KindLibraryAction || h.Kind() == KindLibraryQuery) && sess.Session.LibraryID == "" {
		return errorResponse(errs.Validation("session", "action: no library open for this session"))
	}

	for _, pre := range r.pre {
		if err := pre(ctx, sess, h, req.Payload); err != nil {
			return errorResponse(err)
		}
	}

	out, err := h.Execute(ctx, sess, req.Payload)

	for _, post := range r.post {
		post(ctx, sess, h, out, err)
	}

	if err != nil {
		return errorResponse(err)
	}
	return okResponse(out)
}

func okResponse(out any) wire.Response {
	if jr, ok := out.(JobReceipt); ok {
		out = wire.JobReceiptOutput{JobID: jr.JobID}
	}
	if out == nil {
		return wire.Response{OK: true}
	}
	data, err := wire.Marshal(out)
	if err != nil {
		return errorResponse(errs.Internal(err, "action: encoding output"))
	}
	return wire.Response{OK: true, Output: data}
}

func errorResponse(err error) wire.Response {
	var e *errs.Error
	if !errors.As(err, &e) {
		e = &errs.Error{Kind: errs.KindInternal, Message: err.Error()}
	}
	return wire.Response{OK: false, Error: &wire.ErrorBody{Kind: string(e.Kind), Message: e.Message, Field: e.Field}}
}
