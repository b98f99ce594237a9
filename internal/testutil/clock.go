// Package testutil holds deterministic stand-ins for time and identifiers
// so recorded outcomes and golden output are reproducible.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a DeterministicClock reports.
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a logical clock: each Now advances it by one step.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// NewDeterministicClock returns a clock starting at Epoch with a one second
// step. The first Now returns Epoch.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{start: Epoch, step: time.Second}
}

// Now returns the current instant and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.start.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return now
}

// Ticks returns how many times Now has been called since the last Reset.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock to its start.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
