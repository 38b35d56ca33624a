// Package clock provides the time source for journal timestamps and bench
// timings. Production code uses System; tests inject a Manual clock.
package clock

import (
	"sync"
	"time"
)

// Clock is the interface for time operations.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// System is the wall clock.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Manual is a test clock. Each call to Now returns the current time and then
// moves it forward by Step, so successive events get distinct timestamps.
type Manual struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewManual returns a clock that starts at t and advances by step per read.
func NewManual(t time.Time, step time.Duration) *Manual {
	return &Manual{current: t, step: step}
}

// Now returns the clock's time and advances it by the step.
func (c *Manual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Since returns the duration between t and the clock's time, without
// advancing it.
func (c *Manual) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Sub(t)
}

// Advance moves the clock forward by d.
func (c *Manual) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Or returns c, or System when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return System
	}
	return c
}
