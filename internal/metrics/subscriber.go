package metrics

import (
	"github.com/spacedriveapp/sdcore/internal/eventbus"
	"github.com/spacedriveapp/sdcore/internal/indexer"
	"github.com/spacedriveapp/sdcore/internal/jobs"
)

// Subscribe attaches r as a consumer of bus, translating the event kinds
// spec §6 names into Prometheus observations: job lifecycle transitions,
// indexer throughput, and library population. This is the teacher's
// WorkerPool.Results-fan-out idea pushed one layer further — a consumer
// that only cares about counting, subscribed the same way a UI or an audit
// logger would be. Returns immediately; the consuming goroutine exits when
// bus.Unsubscribe(consumerID) is called (typically at daemon shutdown).
func (r *Registry) Subscribe(bus *eventbus.Bus, consumerID string) {
	if r == nil || !r.enabled || bus == nil {
		return
	}

	ch := bus.Subscribe(consumerID,
		eventbus.KindJobStarted, eventbus.KindJobCompleted, eventbus.KindJobFailed,
		eventbus.KindFilesIndexed, eventbus.KindLibraryOpened, eventbus.KindLibraryClosed)

	go func() {
		for ev := range ch {
			r.handle(ev)
		}
	}()
}

func (r *Registry) handle(ev eventbus.Event) {
	switch ev.Kind {
	case eventbus.KindJobStarted:
		r.ObserveJobLifecycle("started")
	case eventbus.KindJobCompleted:
		r.ObserveJobLifecycle("completed")
	case eventbus.KindJobFailed:
		r.ObserveJobLifecycle("failed")
	case eventbus.KindFilesIndexed:
		if p, ok := ev.Payload.(indexer.FilesIndexedPayload); ok {
			r.filesIndexed.Add(float64(p.Count))
			r.indexDuration.Observe(p.Duration.Seconds())
		}
	case eventbus.KindLibraryOpened:
		r.librariesOpen.Inc()
	case eventbus.KindLibraryClosed:
		r.librariesOpen.Dec()
	}
}

var _ jobs.TaskObserver = (*Registry)(nil)
