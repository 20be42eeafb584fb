package playback

import "time"

// Clock is the output device's monotonic clock. The Scheduler never
// reads the wall clock directly so tests can drive time themselves.
type Clock interface {
	// Now returns the time elapsed since the clock started.
	Now() time.Duration

	// After returns a channel that delivers once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

type monotonicClock struct {
	start time.Time
}

// NewClock returns a Clock backed by the runtime's monotonic time,
// starting at zero.
func NewClock() Clock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) Now() time.Duration {
	return time.Since(c.start)
}

func (c *monotonicClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
