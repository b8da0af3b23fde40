package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/spacedriveapp/sdcore/internal/action"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// ActionHooks returns the PreHook/PostHook pair internal/action's Registry
// runs around every dispatch. Timing can't ride the context (Dispatch
// never threads a hook-modified context back into Execute), so the pre-hook
// stamps a start time keyed by CorrelationID in a short-lived map the
// post-hook reads and deletes — the same "pair of hooks correlating by
// request id" shape dittofs's NFS session metrics use around COMPOUND
// procedures.
func (r *Registry) ActionHooks() (action.PreHook, action.PostHook) {
	if r == nil || !r.enabled {
		return func(context.Context, action.SessionContext, action.Handler, wire.RawMessage) error { return nil },
			func(context.Context, action.SessionContext, action.Handler, any, error) {}
	}

	var mu sync.Mutex
	starts := make(map[string]time.Time)

	pre := func(_ context.Context, sess action.SessionContext, _ action.Handler, _ wire.RawMessage) error {
		mu.Lock()
		starts[sess.CorrelationID] = time.Now()
		mu.Unlock()
		return nil
	}

	post := func(_ context.Context, sess action.SessionContext, h action.Handler, _ any, err error) {
		mu.Lock()
		start, ok := starts[sess.CorrelationID]
		delete(starts, sess.CorrelationID)
		mu.Unlock()

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		r.actionTotal.WithLabelValues(h.Name(), string(h.Kind()), outcome).Inc()
		if ok {
			r.actionLatency.WithLabelValues(h.Name()).Observe(time.Since(start).Seconds())
		}
	}

	return pre, post
}
