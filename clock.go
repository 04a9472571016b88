package simz

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Clock is a virtual source of time. It reports a wall-clock base plus
// an accumulated advance, and the advance only grows when the reactor
// decides to grow it — never because wall time passed. Everything in a
// simulation that asks "what time is it" asks a Clock.
//
// Clock is shared widely by pointer. Only the reactor mutates it
// during a run; Reset exists for test setup and must not be called
// while an executor is running.
type Clock struct {
	mu      sync.Mutex
	wall    clockz.Clock
	base    time.Time
	advance time.Duration
}

// NewClock creates a Clock based at the current wall instant.
func NewClock() *Clock {
	return newClock(clockz.RealClock)
}

// NewClockWithWall creates a Clock whose wall base is read from the
// given clock. Tests use this to pin the base.
func NewClockWithWall(wall clockz.Clock) *Clock {
	return newClock(wall)
}

func newClock(wall clockz.Clock) *Clock {
	return &Clock{wall: wall, base: wall.Now()}
}

// Now returns base + advance.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(c.advance)
}

// Advance moves virtual time forward by d. It never moves backward;
// a negative d panics.
func (c *Clock) Advance(d time.Duration) {
	if d < 0 {
		panic("simz: clock cannot advance backwards")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance += d
}

// Elapsed returns how much virtual time has accumulated since the
// base (or the last Reset).
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advance
}

// Reset rebases the clock to the current wall instant and zeroes the
// accumulated advance. Test setup only; never during Run.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.wall.Now()
	c.advance = 0
}
