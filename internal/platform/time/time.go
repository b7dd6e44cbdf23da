// Package time holds the clock seam TTL logic is written against
package time

import (
	"sync"
	"time"
)

// Clock supplies the current time. Caches and services take one so TTL logic is testable
type Clock interface {
	Now() time.Time
}

// System is the wall clock
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Manual is a settable clock for tests. The zero value starts at the zero time
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock set to t
func NewManual(t time.Time) *Manual { return &Manual{now: t} }

// Now returns the current manual time
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Or returns c, or System when c is nil
func Or(c Clock) Clock {
	if c == nil {
		return System
	}
	return c
}
