package testutil

import (
	"sync"
	"time"
)

// DefaultTime is the instant a FixedClock starts at when none is given:
// 2024-01-01T00:00:00Z.
var DefaultTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FixedClock is a manually advanced clock for tests.
//
// Implements engine.Clock. Decisions and provenance records produced under a
// FixedClock carry reproducible timestamps, which keeps golden files stable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at t. A zero t means DefaultTime.
func NewFixedClock(t time.Time) *FixedClock {
	if t.IsZero() {
		t = DefaultTime
	}
	return &FixedClock{now: t}
}

// Now returns the current frozen time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
