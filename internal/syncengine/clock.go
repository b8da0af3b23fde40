package syncengine

import (
	"sync"
	"time"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

// Clock is one device's hybrid logical clock, spec §4.6: "each change
// carries a hybrid logical clock (physical_ms, counter, origin_device_id)."
// Tick stamps a locally originated change; Observe advances the clock past
// an HLC received from a peer so a device that has been offline catches up
// to real time instead of reusing stale counters.
type Clock struct {
	mu         sync.Mutex
	last       wire.HLC
	deviceUUID string
	now        func() time.Time
}

func NewClock(deviceUUID string) *Clock {
	return &Clock{deviceUUID: deviceUUID, now: time.Now}
}

// Tick returns the next HLC for a change originated on this device.
func (c *Clock) Tick() wire.HLC {
	c.mu.Lock()
	defer c.mu.Unlock()

	physical := c.now().UnixMilli()
	if physical > c.last.PhysicalMs {
		c.last = wire.HLC{PhysicalMs: physical, Counter: 0, DeviceUUID: c.deviceUUID}
	} else {
		c.last.Counter++
	}
	return c.last
}

// Observe advances the clock past a remote HLC, the standard HLC receive
// rule: the local clock never emits a value earlier than anything it has
// seen, whether locally or from a peer.
func (c *Clock) Observe(remote wire.HLC) {
	c.mu.Lock()
	defer c.mu.Unlock()

	physical := c.now().UnixMilli()
	switch {
	case physical > c.last.PhysicalMs && physical > remote.PhysicalMs:
		c.last = wire.HLC{PhysicalMs: physical, Counter: 0, DeviceUUID: c.deviceUUID}
	case remote.PhysicalMs > c.last.PhysicalMs:
		c.last = wire.HLC{PhysicalMs: remote.PhysicalMs, Counter: remote.Counter + 1, DeviceUUID: c.deviceUUID}
	case c.last.PhysicalMs > remote.PhysicalMs:
		c.last.Counter++
	default:
		if remote.Counter >= c.last.Counter {
			c.last.Counter = remote.Counter + 1
		} else {
			c.last.Counter++
		}
	}
}
