package jobs

import (
	"context"
	"sync"
)

// Interrupter lets a running Task's own loop poll for a pause or cancel
// request between units of work, rather than being killed mid-step. Tasks
// that hold resources needing an orderly release (an open file, a partial
// write) check Interrupter.Check at their own safe points, the same way the
// teacher's sync loop checks ctx.Err() between file operations.
type Interrupter struct {
	mu       sync.Mutex
	paused   bool
	resumeCh chan struct{}
	cancel   context.CancelFunc
	ctx      context.Context
}

// Signal is what Check returns when the caller should stop or wait.
type Signal int

const (
	SignalNone Signal = iota
	SignalPause
	SignalCancel
)

func NewInterrupter() *Interrupter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Interrupter{resumeCh: make(chan struct{}), cancel: cancel, ctx: ctx}
}

// Context is canceled when Cancel is called; a Task should plumb it through
// any blocking I/O it performs.
func (in *Interrupter) Context() context.Context {
	return in.ctx
}

// Pause marks the interrupter paused. A Task blocked in WaitIfPaused will
// not resume until Resume is called.
func (in *Interrupter) Pause() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.paused = true
}

// Resume clears the pause flag and wakes any Task blocked in WaitIfPaused.
func (in *Interrupter) Resume() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.paused {
		return
	}
	in.paused = false
	close(in.resumeCh)
	in.resumeCh = make(chan struct{})
}

// Cancel marks the interrupter canceled, including waking a paused Task so
// it observes the cancellation rather than blocking forever.
func (in *Interrupter) Cancel() {
	in.cancel()
	in.mu.Lock()
	if in.paused {
		in.paused = false
		close(in.resumeCh)
		in.resumeCh = make(chan struct{})
	}
	in.mu.Unlock()
}

// Check returns the interrupter's current signal without blocking.
func (in *Interrupter) Check() Signal {
	select {
	case <-in.ctx.Done():
		return SignalCancel
	default:
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.paused {
		return SignalPause
	}
	return SignalNone
}

// WaitIfPaused blocks while the interrupter is paused, returning early with
// ctx.Err() if the job is canceled while waiting.
func (in *Interrupter) WaitIfPaused() error {
	for {
		in.mu.Lock()
		if !in.paused {
			in.mu.Unlock()
			return nil
		}
		ch := in.resumeCh
		in.mu.Unlock()

		select {
		case <-ch:
		case <-in.ctx.Done():
			return in.ctx.Err()
		}
	}
}
