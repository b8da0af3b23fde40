package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T) (*Runner, *Dispatcher) {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	d := NewDispatcher(2, nil, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	d.Start(ctx)
	t.Cleanup(func() { d.Shutdown(time.Second) })

	return NewRunner(d, store, slog.Default()), d
}

func TestJobCompletesWhenAllTasksSucceed(t *testing.T) {
	runner, _ := newTestRunner(t)
	job := New("job-1", "lib-1", "test job", PriorityNormal, json.RawMessage(`{}`))

	var ran atomic.Int32
	tasks := []Task{
		TaskFunc(func(ctx context.Context, j *Job) error { ran.Add(1); return nil }),
		TaskFunc(func(ctx context.Context, j *Job) error { ran.Add(1); return nil }),
	}

	require.NoError(t, runner.Submit(context.Background(), job, tasks))
	require.Eventually(t, func() bool { return job.State() == StateCompleted }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, ran.Load())
}

func TestJobFailsWhenATaskFails(t *testing.T) {
	runner, _ := newTestRunner(t)
	job := New("job-2", "lib-1", "test job", PriorityNormal, json.RawMessage(`{}`))

	tasks := []Task{
		TaskFunc(func(ctx context.Context, j *Job) error { return nil }),
		TaskFunc(func(ctx context.Context, j *Job) error { return assert.AnError }),
	}

	require.NoError(t, runner.Submit(context.Background(), job, tasks))
	require.Eventually(t, func() bool { return job.State() == StateFailed }, time.Second, 5*time.Millisecond)
	assert.Len(t, job.Snapshot().NonCriticalErrors, 1)
}

func TestPauseBlocksRemainingTasksUntilResume(t *testing.T) {
	runner, _ := newTestRunner(t)
	job := New("job-3", "lib-1", "test job", PriorityNormal, json.RawMessage(`{}`))

	started := make(chan struct{})
	var secondRan atomic.Bool

	tasks := []Task{
		TaskFunc(func(ctx context.Context, j *Job) error {
			close(started)
			return j.Interrupter.WaitIfPaused()
		}),
	}

	require.NoError(t, runner.Submit(context.Background(), job, tasks))
	<-started

	require.NoError(t, runner.Pause(job.Record.ID))
	assert.Equal(t, StatePaused, job.State())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, secondRan.Load())

	require.NoError(t, runner.Resume(job.Record.ID))
	require.Eventually(t, func() bool { return job.State() == StateCompleted }, time.Second, 5*time.Millisecond)
}

func TestCancelTransitionsToTerminalState(t *testing.T) {
	runner, _ := newTestRunner(t)
	job := New("job-4", "lib-1", "test job", PriorityNormal, json.RawMessage(`{}`))

	tasks := []Task{
		TaskFunc(func(ctx context.Context, j *Job) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	}

	require.NoError(t, runner.Submit(context.Background(), job, tasks))

	require.NoError(t, runner.Cancel(job.Record.ID))
	assert.Equal(t, StateCanceled, job.State())

	assert.Error(t, job.Transition(StateRunning))
}

func TestDispatcherRespectsVolumeAffinityCap(t *testing.T) {
	caps := []AffinityCap{{VolumeID: "vol-1", Access: AccessRandom, Max: 1}}
	d := NewDispatcher(4, caps, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Shutdown(time.Second)

	job := New("job-5", "lib-1", "affinity test", PriorityNormal, json.RawMessage(`{}`))

	var concurrent atomic.Int32
	var maxSeen atomic.Int32
	mk := func() Task {
		return VolumeTask{Volume: "vol-1", Kind: AccessRandom, Fn: func(ctx context.Context, j *Job) error {
			n := concurrent.Add(1)
			for {
				old := maxSeen.Load()
				if n <= old || maxSeen.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			concurrent.Add(-1)
			return nil
		}}
	}

	tasks := []Task{mk(), mk(), mk()}
	require.NoError(t, NewRunner(d, mustStore(t), slog.Default()).Submit(context.Background(), job, tasks))
	require.Eventually(t, func() bool { return job.State() == StateCompleted }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, maxSeen.Load())
}

func mustStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "checkpoints2"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCheckpointRoundTrips(t *testing.T) {
	store := mustStore(t)
	job := New("job-6", "lib-1", "checkpointable job", PriorityBackground, json.RawMessage(`{}`))
	job.Checkpoint = checkpointableStub{state: []byte(`{"offset":42}`)}

	require.NoError(t, job.Transition(StatePending))
	require.NoError(t, job.Transition(StateRunning))
	require.NoError(t, job.Transition(StatePaused))
	require.NoError(t, store.Save(job))

	raw, err := store.Load("job-6")
	require.NoError(t, err)

	rec, state, err := DecodeCheckpoint(raw)
	require.NoError(t, err)
	assert.Equal(t, StatePaused, rec.State)
	assert.JSONEq(t, `{"offset":42}`, string(state))
}

type checkpointableStub struct{ state []byte }

func (c checkpointableStub) Checkpoint() ([]byte, error) { return c.state, nil }
