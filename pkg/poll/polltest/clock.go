// Package polltest provides a deterministic clock for poll-based tests.
package polltest

import (
	"time"
)

// Clock is a fake poll.Clock. Sleep advances time instantly.
// Not safe for concurrent use; the runtime is single-threaded.
type Clock struct {
	now    time.Time
	sleeps []time.Duration

	// Step, when set, is added to the current time on every Now call to
	// simulate work taking time between sleeps.
	Step time.Duration
}

// NewClock returns a Clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the fake current time.
func (c *Clock) Now() time.Time {
	c.now = c.now.Add(c.Step)
	return c.now
}

// Sleep records d and advances the clock by it.
func (c *Clock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// Advance moves the clock forward without recording a sleep.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Sleeps returns every duration passed to Sleep, in order.
func (c *Clock) Sleeps() []time.Duration {
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// Slept returns the total time slept.
func (c *Clock) Slept() time.Duration {
	var total time.Duration
	for _, d := range c.sleeps {
		total += d
	}
	return total
}
