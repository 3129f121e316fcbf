package clock

import (
	"sync"
	"time"
)

// ManualClock provides a controllable simulated time source for testing.
// Simulated and real time are the same on a manual clock.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Duration
}

// NewManualClock creates a manual clock at the given simulated time
func NewManualClock(start time.Duration) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current mocked time
func (m *ManualClock) Now() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set sets the current time
func (m *ManualClock) Set(t time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance advances the current time by d
func (m *ManualClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
}

func (m *ManualClock) RealDurationForSimMinutes(n float64) time.Duration {
	return Minutes(n)
}

func (m *ManualClock) RealDurationForSimHours(n float64) time.Duration {
	return Hours(n)
}
