package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/eventbus"
)

// Runner owns the set of in-flight Jobs for a library and drives their
// state machine around a shared Dispatcher: submitting a job's tasks,
// observing completion, and wiring pause/resume through to the
// Dispatcher-wide Interrupter plus the checkpoint Store.
type Runner struct {
	log        *slog.Logger
	dispatcher *Dispatcher
	store      *Store
	events     *eventbus.Bus

	mu   sync.Mutex
	jobs map[string]*Job
}

func NewRunner(dispatcher *Dispatcher, store *Store, log *slog.Logger) *Runner {
	return &Runner{
		log:        log,
		dispatcher: dispatcher,
		store:      store,
		jobs:       make(map[string]*Job),
	}
}

// SetEvents attaches bus, the publisher of spec §6's KindJobStarted/
// KindJobCompleted/KindJobFailed events. Nil-safe and optional: a Runner
// with no bus attached runs exactly as before.
func (r *Runner) SetEvents(bus *eventbus.Bus) {
	r.events = bus
}

// JobLifecyclePayload is the event bus payload for KindJobStarted/
// KindJobCompleted/KindJobFailed.
type JobLifecyclePayload struct {
	JobID     string
	LibraryID string
	Name      string
}

// Submit registers job and dispatches its tasks, transitioning
// New → Pending → Running. Completion (all tasks finished) transitions the
// job to Completed if no task failed, or Failed if any did and the job has
// no Reversible recovery, matching spec §4.3's "a job fails only if its
// invariants can't be reestablished" rule — callers whose Job also
// implements Reversible should instead inspect onFailure and call Reverse
// themselves before marking the job Failed.
func (r *Runner) Submit(ctx context.Context, job *Job, tasks []Task) error {
	if err := job.Transition(StatePending); err != nil {
		return err
	}

	r.mu.Lock()
	r.jobs[job.Record.ID] = job
	r.mu.Unlock()

	job.onAllDone = func(failures int64) {
		r.finish(job, failures)
	}

	if err := job.Transition(StateRunning); err != nil {
		return err
	}

	r.dispatcher.DispatchMany(tasks, job)
	r.publish(eventbus.KindJobStarted, job)
	return nil
}

func (r *Runner) finish(job *Job, failures int64) {
	next := StateCompleted
	if failures > 0 {
		next = StateFailed
	}
	cur := job.State()
	if cur == StatePaused || cur.IsTerminal() {
		// Either every in-flight task observed the pause signal and returned
		// before this callback fired (job stays Paused), or the job was
		// already explicitly canceled/finalized elsewhere.
		return
	}
	if err := job.Transition(next); err != nil {
		r.log.Warn("jobs: could not finalize job", "job", job.Record.ID, "target", next, "error", err)
	}
	if next == StateCompleted {
		if err := r.store.Delete(job.Record.ID); err != nil && !isNotFoundErr(err) {
			r.log.Warn("jobs: could not clear checkpoint for completed job", "job", job.Record.ID, "error", err)
		}
		r.publish(eventbus.KindJobCompleted, job)
	} else {
		r.publish(eventbus.KindJobFailed, job)
	}
}

func (r *Runner) publish(kind eventbus.Kind, job *Job) {
	if r.events == nil {
		return
	}
	r.events.Publish(eventbus.Event{Kind: kind, Payload: JobLifecyclePayload{
		JobID: job.Record.ID, LibraryID: job.Record.LibraryID, Name: job.Record.Name,
	}})
}

// Pause marks jobID paused: its Interrupter stops new tasks from starting
// and blocks any at a WaitIfPaused checkpoint, and its state snapshot is
// persisted to the Store so it can Resume after a restart.
func (r *Runner) Pause(jobID string) error {
	job, ok := r.get(jobID)
	if !ok {
		return errs.NotFound("jobs: unknown job " + jobID)
	}
	if err := job.Transition(StatePaused); err != nil {
		return err
	}
	job.Interrupter.Pause()
	return r.store.Save(job)
}

// Resume reactivates a paused job's Interrupter so its blocked tasks
// continue, transitioning Paused → Running.
func (r *Runner) Resume(jobID string) error {
	job, ok := r.get(jobID)
	if !ok {
		return errs.NotFound("jobs: unknown job " + jobID)
	}
	if err := job.Transition(StateRunning); err != nil {
		return err
	}
	job.Interrupter.Resume()
	return nil
}

// Cancel transitions jobID to Canceled and signals its Interrupter, which
// both stops new task dispatch for it and unblocks a paused job so it can
// observe the cancellation.
func (r *Runner) Cancel(jobID string) error {
	job, ok := r.get(jobID)
	if !ok {
		return errs.NotFound("jobs: unknown job " + jobID)
	}
	if err := job.Transition(StateCanceled); err != nil {
		return err
	}
	job.Interrupter.Cancel()
	if err := r.store.Delete(jobID); err != nil && !isNotFoundErr(err) {
		r.log.Warn("jobs: could not clear checkpoint for canceled job", "job", jobID, "error", err)
	}
	return nil
}

// Get returns the tracked job and whether it was found.
func (r *Runner) Get(jobID string) (*Job, bool) {
	return r.get(jobID)
}

func (r *Runner) get(jobID string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	return j, ok
}

// List returns a snapshot of every Record this Runner currently tracks.
func (r *Runner) List() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Snapshot())
	}
	return out
}

// Shutdown pauses every still-running job (persisting its checkpoint) and
// stops the Dispatcher, giving in-flight tasks grace to return before
// detaching them — spec §4.3's shutdown contract.
func (r *Runner) Shutdown(grace time.Duration) {
	r.mu.Lock()
	running := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		if j.State() == StateRunning {
			running = append(running, j)
		}
	}
	r.mu.Unlock()

	for _, j := range running {
		j.Interrupter.Pause()
		if err := j.Transition(StatePaused); err != nil {
			continue
		}
		if err := r.store.Save(j); err != nil {
			r.log.Warn("jobs: could not checkpoint job at shutdown", "job", j.Record.ID, "error", err)
		}
	}

	r.dispatcher.Shutdown(grace)
}

func isNotFoundErr(err error) bool {
	var e *errs.Error
	return errors.As(err, &e) && e.Kind == errs.KindNotFound
}
