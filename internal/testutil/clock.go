// Package testutil provides shared test helpers.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a manually advanced clock for tests. Its Now method
// matches the clock override hooks used by commands, so a test can
// pin "now" to a known instant and step it forward deterministically.
type FixedClock struct {
	mu  sync.Mutex
	cur time.Time
}

// NewFixedClock creates a clock frozen at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{cur: t}
}

// Now returns the clock's current instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Advance moves the clock forward by d and returns the new instant.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
	return c.cur
}
