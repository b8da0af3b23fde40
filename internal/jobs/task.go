package jobs

import "context"

// AccessKind distinguishes how a Task touches its volume, for the
// volume-affinity soft cap spec §4.3 requires ("derived from measured
// throughput" — sequential workloads tolerate much higher concurrency per
// spinning disk than random ones).
type AccessKind string

const (
	AccessSequential AccessKind = "sequential"
	AccessRandom     AccessKind = "random"
)

// Task is one unit of dispatchable work belonging to a Job. VolumeID and
// Access report the scheduling key the Dispatcher uses for its soft caps;
// a Task with an empty VolumeID is not volume-affinity-limited (e.g. a
// pure-CPU or network step).
type Task interface {
	VolumeID() string
	Access() AccessKind
	Run(ctx context.Context, job *Job) error
}

// TaskFunc adapts a plain function to Task for tasks with no volume
// affinity, the way most of a job's non-I/O steps (hashing already-read
// bytes, applying a catalog mutation) are expressed.
type TaskFunc func(ctx context.Context, job *Job) error

func (f TaskFunc) VolumeID() string   { return "" }
func (f TaskFunc) Access() AccessKind { return AccessSequential }
func (f TaskFunc) Run(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// VolumeTask wraps a TaskFunc with an explicit volume affinity key and
// access kind, for steps that do read real disk I/O (a directory walk, a
// file read for hashing).
type VolumeTask struct {
	Volume string
	Kind   AccessKind
	Fn     func(ctx context.Context, job *Job) error
}

func (t VolumeTask) VolumeID() string   { return t.Volume }
func (t VolumeTask) Access() AccessKind { return t.Kind }
func (t VolumeTask) Run(ctx context.Context, job *Job) error {
	return t.Fn(ctx, job)
}

// Reversible is the capability a Task's Job may additionally implement,
// grounded on original_source's job-system reversible trait: a job that
// partially applied side effects before failing or being canceled can undo
// them rather than leaving the catalog in an inconsistent state.
type Reversible interface {
	Reverse(ctx context.Context) error
}

// Checkpointable lets a Job serialize enough state to resume from where it
// paused, rather than restarting from scratch. Store.Save calls Checkpoint
// when transitioning a job to Paused; Store.Load's caller is responsible for
// passing the bytes back into a freshly constructed job of the same kind.
type Checkpointable interface {
	Checkpoint() ([]byte, error)
}
