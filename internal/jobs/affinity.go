package jobs

import "sync"

// affinityLimiter enforces spec §4.3's soft per-(volume_id, access_kind)
// concurrency cap: at most Max tasks touching the same volume with the same
// access pattern run at once, so a random-read job can't starve a
// sequential scan's throughput on the same spinning disk (or vice versa).
// A volume/access pair with no configured cap is unconstrained.
type affinityLimiter struct {
	mu    sync.Mutex
	caps  map[string]int
	inUse map[string]int
	cond  *sync.Cond
}

func newAffinityLimiter(caps []AffinityCap) *affinityLimiter {
	l := &affinityLimiter{
		caps:  make(map[string]int, len(caps)),
		inUse: make(map[string]int, len(caps)),
	}
	l.cond = sync.NewCond(&l.mu)
	for _, c := range caps {
		l.caps[affinityKey(c.VolumeID, c.Access)] = c.Max
	}
	return l
}

func affinityKey(volumeID string, access AccessKind) string {
	return volumeID + "/" + string(access)
}

// acquire blocks until a slot is available for (volumeID, access), then
// returns a func that releases it. Tasks with no volumeID (no disk
// affinity) or no configured cap proceed immediately.
func (l *affinityLimiter) acquire(volumeID string, access AccessKind) func() {
	if volumeID == "" {
		return func() {}
	}
	key := affinityKey(volumeID, access)

	l.mu.Lock()
	max, capped := l.caps[key]
	if !capped {
		l.mu.Unlock()
		return func() {}
	}
	for l.inUse[key] >= max {
		l.cond.Wait()
	}
	l.inUse[key]++
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		l.inUse[key]--
		l.mu.Unlock()
		l.cond.Broadcast()
	}
}
