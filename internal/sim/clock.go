package sim

import "sync/atomic"

// Clock is the monotonic logical tick counter for the driving loop.
//
// Snapshots are ordered by tick seq, never by wall-clock time: a paced
// loop and a test loop stepping as fast as it can must produce the same
// ordering.
//
// Thread-safety: safe for concurrent use (atomic operations), though the
// Runner's single-goroutine loop means only one caller typically ticks it.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a known tick, e.g. when a run
// continues on top of an existing history window.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next tick number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the clock position without advancing it.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
