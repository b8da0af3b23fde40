package metrics

import (
	"time"

	"github.com/spacedriveapp/sdcore/internal/jobs"
)

// ObserveTask implements jobs.TaskObserver, turning every Dispatcher task
// outcome into a labeled histogram observation.
func (r *Registry) ObserveTask(priority jobs.Priority, duration time.Duration, success bool) {
	if r == nil || !r.enabled {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	r.taskDuration.WithLabelValues(priority.String(), outcome).Observe(duration.Seconds())
}

// ObserveJobLifecycle increments the started_total counter for one of a
// job's terminal (or starting) states, driven by Runner's JobLifecyclePayload
// events rather than a direct dependency from internal/jobs on this package.
func (r *Registry) ObserveJobLifecycle(state string) {
	if r == nil || !r.enabled {
		return
	}
	r.jobsStarted.WithLabelValues(state).Inc()
}
