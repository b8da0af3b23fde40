package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// maxRecordedErrors caps the diagnostic detail a Dispatcher keeps per run,
// the same bound the teacher's WorkerPool applies to its own error slice —
// a job touching a million files must not retain a million error strings.
const maxRecordedErrors = 1000

// item is one scheduled unit of work: a Task plus the Job it belongs to,
// queued in one of four priority buckets.
type item struct {
	task Task
	job  *Job
}

// Dispatcher is the L3 priority-aware worker pool. It generalizes the
// teacher's flat WorkerPool (internal/sync/worker.go: one channel, N
// goroutines, atomic succeeded/failed counters, panic-recovered execution)
// along two axes spec §4.3 requires: four priority buckets drained
// high-to-low, and a soft per-(volume_id, access_kind) concurrency cap so
// one spinning disk doesn't get saturated by an unrelated job's random
// reads while a sequential scan of the same disk starves.
type Dispatcher struct {
	log     *slog.Logger
	workers int

	queues [4]chan item // indexed by Priority

	affinity *affinityLimiter

	succeeded atomic.Int64
	failed    atomic.Int64

	mu            sync.Mutex
	errs          []string
	droppedErrors int64

	stop chan struct{}
	wg   sync.WaitGroup

	observer TaskObserver
}

// TaskObserver receives a callback after every task's terminal outcome, the
// hook internal/metrics attaches to turn dispatcher throughput into
// Prometheus counters/histograms without this package importing metrics
// itself. Nil-safe: Dispatcher only calls it when set.
type TaskObserver interface {
	ObserveTask(priority Priority, duration time.Duration, success bool)
}

// SetObserver attaches o, replacing any previously set observer. Call before
// Start; the teacher's WorkerPool has no equivalent since it only ever fed
// one Results channel, but the shape generalizes that same "watch what the
// pool does without the pool knowing why" idea.
func (d *Dispatcher) SetObserver(o TaskObserver) {
	d.observer = o
}

// AffinityCap configures the soft concurrency limit for one volume/access
// pair. Caps are "soft": a task whose volume has no configured cap runs
// unconstrained.
type AffinityCap struct {
	VolumeID string
	Access   AccessKind
	Max      int
}

func NewDispatcher(workers int, caps []AffinityCap, log *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	d := &Dispatcher{
		log:      log,
		workers:  workers,
		affinity: newAffinityLimiter(caps),
		stop:     make(chan struct{}),
	}
	for p := range d.queues {
		d.queues[p] = make(chan item, 256)
	}
	return d
}

// Start launches the worker goroutines. Call Shutdown to stop them.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(ctx)
	}
}

// Submit enqueues a single task at job's priority.
func (d *Dispatcher) Submit(task Task, job *Job) {
	job.trackTasks(1)
	d.enqueue(task, job)
}

// DispatchMany enqueues every task in tasks at job's priority, implementing
// spec §4.3's dispatch_many(tasks) entry point used by a job's planning
// phase once it has enumerated its full unit-of-work list.
func (d *Dispatcher) DispatchMany(tasks []Task, job *Job) {
	job.trackTasks(len(tasks))
	for _, t := range tasks {
		d.enqueue(t, job)
	}
}

func (d *Dispatcher) enqueue(task Task, job *Job) {
	p := job.Record.Priority
	if p < PriorityIdle || p > PriorityInteractive {
		p = PriorityNormal
	}
	d.queues[p] <- item{task: task, job: job}
}

// Shutdown stops accepting new dispatch loop iterations, cancels every
// running task's Interrupter-visible context via ctx, and waits up to grace
// for workers to return before giving up and detaching them — spec §4.3's
// shutdown contract ("detach tasks that don't return in time").
func (d *Dispatcher) Shutdown(grace time.Duration) {
	close(d.stop)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		d.log.Warn("jobs: dispatcher shutdown grace period elapsed, detaching running workers")
	}
}

func (d *Dispatcher) runWorker(ctx context.Context) {
	defer d.wg.Done()

	for {
		it, ok := d.nextItem(ctx)
		if !ok {
			return
		}
		d.execute(ctx, it)
	}
}

// nextItem drains the highest-priority non-empty queue first, falling back
// to lower priorities only when nothing higher is ready — a priority-aware
// generalization of the teacher's single `for action := range ch` loop.
func (d *Dispatcher) nextItem(ctx context.Context) (item, bool) {
	interactive, normal, background, idle := d.queues[PriorityInteractive], d.queues[PriorityNormal], d.queues[PriorityBackground], d.queues[PriorityIdle]

	select {
	case it := <-interactive:
		return it, true
	default:
	}
	select {
	case it := <-interactive:
		return it, true
	case it := <-normal:
		return it, true
	default:
	}
	select {
	case it := <-interactive:
		return it, true
	case it := <-normal:
		return it, true
	case it := <-background:
		return it, true
	default:
	}

	select {
	case it := <-interactive:
		return it, true
	case it := <-normal:
		return it, true
	case it := <-background:
		return it, true
	case it := <-idle:
		return it, true
	case <-d.stop:
		return item{}, false
	case <-ctx.Done():
		return item{}, false
	}
}

func (d *Dispatcher) execute(ctx context.Context, it item) {
	release := d.affinity.acquire(it.task.VolumeID(), it.task.Access())
	defer release()

	start := time.Now()

	if err := it.job.Interrupter.WaitIfPaused(); err != nil {
		it.job.noteTaskResult(true)
		d.observeTask(it, start, false)
		return
	}

	err := d.safeRun(it)
	if err != nil {
		if errs.IsRetryable(err) {
			err = d.retryTransient(ctx, it)
		}
	}

	if err != nil {
		d.failed.Add(1)
		it.job.AddNonCriticalError(err.Error())
		d.recordError(fmt.Sprintf("job %s: %v", it.job.Record.ID, err))
		it.job.noteTaskResult(true)
		d.observeTask(it, start, false)
		return
	}
	d.succeeded.Add(1)
	it.job.noteTaskResult(false)
	d.observeTask(it, start, true)
}

func (d *Dispatcher) observeTask(it item, start time.Time, success bool) {
	if d.observer == nil {
		return
	}
	d.observer.ObserveTask(it.job.Record.Priority, time.Since(start), success)
}

// retryTransient implements spec §4.3's "transient I/O errors retried up to
// 3 attempts, 50ms base backoff doubling to a 500ms cap" policy via
// sethvargo/go-retry's fibonacci-free exponential backoff helper.
func (d *Dispatcher) retryTransient(ctx context.Context, it item) error {
	b, err := retry.NewExponential(50 * time.Millisecond)
	if err != nil {
		return err
	}
	b = retry.WithMaxRetries(2, b) // 3 total attempts
	b = retry.WithCappedDuration(500*time.Millisecond, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := d.safeRun(it)
		if err != nil && errs.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// safeRun recovers a panicking Task the way the teacher's safeExecuteAction
// recovers a panicking action handler, converting it into an Internal error
// rather than taking the whole dispatcher down.
func (d *Dispatcher) safeRun(it item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Internal(fmt.Errorf("panic: %v", r), "jobs: task panicked")
			d.log.Error("jobs: task panicked", "recovered", r, "stack", string(debug.Stack()))
		}
	}()
	return it.task.Run(it.job.Interrupter.Context(), it.job)
}

func (d *Dispatcher) recordError(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.errs) >= maxRecordedErrors {
		d.droppedErrors++
		return
	}
	d.errs = append(d.errs, msg)
}

// Stats is a point-in-time snapshot of dispatcher throughput counters.
type Stats struct {
	Succeeded     int64
	Failed        int64
	RecordedErrs  []string
	DroppedErrors int64
}

func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
		RecordedErrs:  append([]string(nil), d.errs...),
		DroppedErrors: d.droppedErrors,
	}
}
