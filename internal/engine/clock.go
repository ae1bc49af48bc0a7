package engine

import "time"

// Clock supplies the wall time used for ready timestamps.
//
// The engine only ever reads Now().Unix(), so implementations may be as coarse
// as one second. Tests and journal replay substitute their own clocks.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}
