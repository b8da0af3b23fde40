package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spacedriveapp/sdcore/internal/action"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// ActionHooks returns the PreHook/PostHook pair wrapping every
// internal/action dispatch in a span named after the handler, the same
// correlation-id-keyed pairing internal/metrics.ActionHooks uses since
// action.Registry.Dispatch doesn't thread a hook-modified context back
// into Execute.
func ActionHooks() (action.PreHook, action.PostHook) {
	var mu sync.Mutex
	spans := make(map[string]trace.Span)

	pre := func(ctx context.Context, sess action.SessionContext, h action.Handler, _ wire.RawMessage) error {
		_, span := StartSpan(ctx, "action."+h.Name(),
			trace.WithAttributes(
				attribute.String("action.kind", string(h.Kind())),
				CorrelationAttr(sess.CorrelationID),
			))
		mu.Lock()
		spans[sess.CorrelationID] = span
		mu.Unlock()
		return nil
	}

	post := func(_ context.Context, sess action.SessionContext, _ action.Handler, _ any, err error) {
		mu.Lock()
		span, ok := spans[sess.CorrelationID]
		delete(spans, sess.CorrelationID)
		mu.Unlock()
		if !ok {
			return
		}
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}

	return pre, post
}
