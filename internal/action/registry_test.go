package action

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

type pingPayload struct {
	Message string `validate:"required"`
}

func echoHandler(name string, kind Kind) Handler {
	return HandlerFunc{HandlerName: name, HandlerKind: kind, Fn: func(ctx context.Context, sess SessionContext, payload wire.RawMessage) (any, error) {
		var p pingPayload
		if err := Decode(payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	}}
}

func TestDispatchRunsValidateExecuteAndReturnsOutput(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoHandler("core.ping", KindCoreAction))

	payload, err := wire.Marshal(pingPayload{Message: "hi"})
	require.NoError(t, err)

	resp := reg.Dispatch(context.Background(), SessionContext{}, wire.Request{Kind: wire.RequestAction, Name: "core.ping", Payload: payload})
	require.True(t, resp.OK)

	var out pingPayload
	require.NoError(t, wire.Unmarshal(resp.Output, &out))
	assert.Equal(t, "hi", out.Message)
}

func TestDispatchRejectsEmptyRequiredField(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoHandler("core.ping", KindCoreAction))

	payload, err := wire.Marshal(pingPayload{})
	require.NoError(t, err)

	resp := reg.Dispatch(context.Background(), SessionContext{}, wire.Request{Name: "core.ping", Payload: payload})
	require.False(t, resp.OK)
	assert.Equal(t, string(errs.KindValidation), resp.Error.Kind)
}

func TestDispatchRejectsUnknownHandler(t *testing.T) {
	reg := NewRegistry()
	resp := reg.Dispatch(context.Background(), SessionContext{}, wire.Request{Name: "does.not.exist"})
	require.False(t, resp.OK)
	assert.Equal(t, string(errs.KindNotFound), resp.Error.Kind)
}

func TestDispatchRejectsLibraryScopedWithoutOpenLibrary(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoHandler("library.rename", KindLibraryAction))

	payload, _ := wire.Marshal(pingPayload{Message: "x"})
	resp := reg.Dispatch(context.Background(), SessionContext{}, wire.Request{Name: "library.rename", Payload: payload})
	require.False(t, resp.OK)
	assert.Equal(t, string(errs.KindValidation), resp.Error.Kind)

	resp = reg.Dispatch(context.Background(), SessionContext{Session: Session{LibraryID: "lib-1"}}, wire.Request{Name: "library.rename", Payload: payload})
	assert.True(t, resp.OK)
}

func TestDispatchRewritesJobReceiptToWireOutput(t *testing.T) {
	reg := NewRegistry()
	reg.Register(HandlerFunc{HandlerName: "library.index", HandlerKind: KindLibraryAction, Fn: func(ctx context.Context, sess SessionContext, payload wire.RawMessage) (any, error) {
		return JobReceipt{JobID: "job-42"}, nil
	}})

	resp := reg.Dispatch(context.Background(), SessionContext{Session: Session{LibraryID: "lib-1"}}, wire.Request{Name: "library.index"})
	require.True(t, resp.OK)

	var out wire.JobReceiptOutput
	require.NoError(t, wire.Unmarshal(resp.Output, &out))
	assert.Equal(t, "job-42", out.JobID)
}

func TestDispatchPreHookShortCircuits(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoHandler("core.ping", KindCoreAction))
	reg.Use(func(ctx context.Context, sess SessionContext, h Handler, payload wire.RawMessage) error {
		return errs.Permission("action: blocked by hook")
	})

	resp := reg.Dispatch(context.Background(), SessionContext{}, wire.Request{Name: "core.ping"})
	require.False(t, resp.OK)
	assert.Equal(t, string(errs.KindPermission), resp.Error.Kind)
}

func TestDispatchPostHookObservesOutcome(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoHandler("core.ping", KindCoreAction))

	var sawErr error
	var called bool
	reg.UsePost(func(ctx context.Context, sess SessionContext, h Handler, output any, err error) {
		called = true
		sawErr = err
	})

	payload, _ := wire.Marshal(pingPayload{Message: "hi"})
	reg.Dispatch(context.Background(), SessionContext{}, wire.Request{Name: "core.ping", Payload: payload})
	assert.True(t, called)
	assert.NoError(t, sawErr)
}

func TestSignAndVerifySessionRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	sess := Session{DeviceID: "dev-1", LibraryID: "lib-1"}

	tok, err := SignSession(sess, secret, time.Minute)
	require.NoError(t, err)

	got, err := VerifySession(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, sess.DeviceID, got.DeviceID)
	assert.Equal(t, sess.LibraryID, got.LibraryID)
}
