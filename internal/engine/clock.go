package engine

import "time"

// Clock supplies wall-clock time for decision timestamps.
//
// Implemented by SystemClock (production) and testutil.FixedClock (tests).
// Timestamps are informational only; nothing in the rule chain depends on
// the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
//
// Thread-safety: SystemClock is stateless and safe for concurrent use.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
