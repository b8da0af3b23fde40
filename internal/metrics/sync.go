package metrics

import "github.com/spacedriveapp/sdcore/internal/syncengine"

var _ syncengine.Observer = (*Registry)(nil)

// ObserveApplied implements syncengine.Observer, counting one committed
// sync log entry against its model.
func (r *Registry) ObserveApplied(model string) {
	if r == nil || !r.enabled {
		return
	}
	r.syncApplied.WithLabelValues(model).Inc()
}

// ObserveQuarantined implements syncengine.Observer, counting one entry the
// Applier gave up on after repeated solo-apply failure.
func (r *Registry) ObserveQuarantined() {
	if r == nil || !r.enabled {
		return
	}
	r.syncConflicts.Inc()
}
