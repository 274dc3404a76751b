package clock

import (
	"sync"
	"time"
)

// Clock abstracts the time source so lifecycle policies can be tested.
type Clock interface {
	// Now returns the current local time.
	Now() time.Time
}

type clock struct{}

// New creates a Clock backed by the system time.
func New() Clock {
	return clock{}
}

func (clock) Now() time.Time {
	return time.Now()
}

// Mock is a manually driven Clock.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock returns a Mock frozen at t.
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
