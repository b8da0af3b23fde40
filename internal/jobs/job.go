// Package jobs implements L3: the priority-aware, resumable task executor
// that backs every long-running operation in the core. A Job is a state
// machine whose steps are Tasks dispatched to a Dispatcher; its pattern is
// grounded on the teacher's WorkerPool (internal/sync/worker.go) — a flat
// pool of goroutines pulling ready work from a single channel, panic-safe
// per-task execution, and a capped diagnostic error slice — generalized
// from one action type to an arbitrary Task interface with priority and
// volume-affinity scheduling.
package jobs

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// State is a Job's position in spec §4.3's state machine:
//
//	New → Pending → Running
//	Running → Paused (pause request OR shutdown)
//	Running → Canceled (terminal)
//	Running → Completed (terminal)
//	Running → Failed (terminal)
//	Paused → Running (resume)
type State string

const (
	StateNew       State = "new"
	StatePending   State = "pending"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCanceled  State = "canceled"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

var validTransitions = map[State]map[State]bool{
	StateNew:     {StatePending: true},
	StatePending: {StateRunning: true, StateCanceled: true},
	StateRunning: {StatePaused: true, StateCanceled: true, StateCompleted: true, StateFailed: true},
	StatePaused:  {StateRunning: true, StateCanceled: true},
}

// IsTerminal reports whether s has no outgoing transitions.
func (s State) IsTerminal() bool {
	return s == StateCanceled || s == StateCompleted || s == StateFailed
}

// Record is the persisted descriptor of a Job (spec §3's "Job (record)").
type Record struct {
	ID                   string
	LibraryID            string
	Name                 string
	SerializedParameters json.RawMessage
	State                State
	Priority             Priority
	Progress             float64
	CreatedAt            time.Time
	StartedAt            *time.Time
	CompletedAt          *time.Time
	Error                string
	ParentJobID          *string
	AffectedResources    []string
	NonCriticalErrors    []string
}

// Job wraps a Record with the in-memory machinery the dispatcher and
// checkpoint store need: a mutex guarding state transitions, and an
// Interrupter the job's Tasks poll for pause/cancel requests.
type Job struct {
	mu sync.Mutex

	Record      Record
	Interrupter *Interrupter

	// Checkpoint is the job's own Checkpointable implementation, if any;
	// Store.Save calls it when the job pauses. Jobs that cannot meaningfully
	// resume (a one-shot metadata fixup, say) leave this nil.
	Checkpoint Checkpointable

	pending      atomic.Int64
	taskFailures atomic.Int64
	onAllDone    func(failures int64)
	doneOnce     sync.Once
}

// trackTasks records n newly dispatched tasks belonging to this job, so the
// dispatcher knows when the job's work is exhausted.
func (j *Job) trackTasks(n int) {
	j.pending.Add(int64(n))
}

// noteTaskResult is called by the Dispatcher once per completed task
// (success or permanently-failed-after-retries). When the last outstanding
// task finishes it invokes the job's onAllDone callback exactly once.
func (j *Job) noteTaskResult(failed bool) {
	if failed {
		j.taskFailures.Add(1)
	}
	if j.pending.Add(-1) > 0 {
		return
	}
	j.doneOnce.Do(func() {
		if j.onAllDone != nil {
			j.onAllDone(j.taskFailures.Load())
		}
	})
}

// New creates a Job in state New.
func New(id, libraryID, name string, priority Priority, params json.RawMessage) *Job {
	return &Job{
		Record: Record{
			ID:                   id,
			LibraryID:            libraryID,
			Name:                 name,
			SerializedParameters: params,
			State:                StateNew,
			Priority:             priority,
			CreatedAt:            time.Now(),
		},
		Interrupter: NewInterrupter(),
	}
}

// Transition moves the job to next, returning an error if the transition
// is not legal from the current state. Terminal states never accept a
// further transition.
func (j *Job) Transition(next State) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	cur := j.Record.State
	if cur.IsTerminal() {
		return ErrTerminalState{From: cur}
	}
	if !validTransitions[cur][next] {
		return ErrIllegalTransition{From: cur, To: next}
	}

	j.Record.State = next

	now := time.Now()
	switch next {
	case StateRunning:
		if j.Record.StartedAt == nil {
			j.Record.StartedAt = &now
		}
	case StateCompleted, StateCanceled, StateFailed:
		j.Record.CompletedAt = &now
	}

	return nil
}

// State returns the job's current state under lock.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Record.State
}

// SetProgress updates the job's fractional progress (0..1).
func (j *Job) SetProgress(p float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Record.Progress = p
}

// AddNonCriticalError appends to the job's non_critical_errors vector
// (spec §4.3: "collected ... and the job continues") rather than failing
// the job outright.
func (j *Job) AddNonCriticalError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Record.NonCriticalErrors = append(j.Record.NonCriticalErrors, msg)
}

// Snapshot returns a copy of the job's current Record for persistence or
// reporting.
func (j *Job) Snapshot() Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec := j.Record
	rec.AffectedResources = append([]string(nil), j.Record.AffectedResources...)
	rec.NonCriticalErrors = append([]string(nil), j.Record.NonCriticalErrors...)
	return rec
}

type ErrIllegalTransition struct{ From, To State }

func (e ErrIllegalTransition) Error() string {
	return "jobs: illegal transition from " + string(e.From) + " to " + string(e.To)
}

type ErrTerminalState struct{ From State }

func (e ErrTerminalState) Error() string {
	return "jobs: job already in terminal state " + string(e.From)
}
