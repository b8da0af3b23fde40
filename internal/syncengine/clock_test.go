package syncengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockTickIsMonotonicWithinSameMillisecond(t *testing.T) {
	c := NewClock("dev-1")
	fixed := time.UnixMilli(1000)
	c.now = func() time.Time { return fixed }

	a := c.Tick()
	b := c.Tick()
	assert.True(t, a.Before(b))
	assert.Equal(t, a.PhysicalMs, b.PhysicalMs)
	assert.Equal(t, a.Counter+1, b.Counter)
}

func TestClockTickAdvancesWithWallClock(t *testing.T) {
	c := NewClock("dev-1")
	ms := int64(1000)
	c.now = func() time.Time { return time.UnixMilli(ms) }

	a := c.Tick()
	ms = 2000
	b := c.Tick()

	assert.True(t, a.Before(b))
	assert.Equal(t, int64(2000), b.PhysicalMs)
	assert.EqualValues(t, 0, b.Counter)
}

func TestClockObserveAdvancesPastFutureRemote(t *testing.T) {
	c := NewClock("dev-1")
	c.now = func() time.Time { return time.UnixMilli(1000) }
	c.Tick()

	remote := c.last
	remote.PhysicalMs = 5000
	remote.Counter = 3
	remote.DeviceUUID = "dev-2"

	c.Observe(remote)
	next := c.Tick()

	assert.True(t, remote.Before(next))
}
