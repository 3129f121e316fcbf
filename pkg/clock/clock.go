package clock

import (
	"sync"
	"time"
)

// Clock is the in-game time source. Now reports simulated time elapsed since
// the clock's epoch; it only moves when the owner advances it, so pauses and
// time compression apply to everything that polls it.
type Clock interface {
	Now() time.Duration
	RealDurationForSimMinutes(n float64) time.Duration
	RealDurationForSimHours(n float64) time.Duration
}

// Minutes converts a (possibly fractional) number of simulated minutes to a duration
func Minutes(n float64) time.Duration {
	return time.Duration(n * float64(time.Minute))
}

// Hours converts a (possibly fractional) number of simulated hours to a duration
func Hours(n float64) time.Duration {
	return time.Duration(n * float64(time.Hour))
}

// GameClock is a frame-driven, pausable simulated clock.
// Scale is the number of simulated seconds that pass per real second.
type GameClock struct {
	mu     sync.RWMutex
	now    time.Duration
	scale  float64
	paused bool
}

// NewGameClock creates a clock at simulated time zero.
// A non-positive scale falls back to real time (1.0).
func NewGameClock(scale float64) *GameClock {
	if scale <= 0 {
		scale = 1
	}
	return &GameClock{scale: scale}
}

// Now returns current simulated time
func (c *GameClock) Now() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves simulated time forward by real*scale unless paused.
// Returns the simulated delta actually applied.
func (c *GameClock) Advance(real time.Duration) time.Duration {
	if real <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return 0
	}
	delta := time.Duration(float64(real) * c.scale)
	c.now += delta
	return delta
}

// Set jumps simulated time to t (used when restoring a saved game)
func (c *GameClock) Set(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Pause stops simulated time advancement
func (c *GameClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume continues simulated time advancement
func (c *GameClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

// IsPaused returns current pause state
func (c *GameClock) IsPaused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// Scale returns simulated seconds per real second
func (c *GameClock) Scale() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scale
}

// SetScale changes time compression. Non-positive values are ignored.
func (c *GameClock) SetScale(scale float64) {
	if scale <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scale = scale
}

// RealDurationForSimMinutes returns how much wall time n simulated minutes take
func (c *GameClock) RealDurationForSimMinutes(n float64) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(float64(Minutes(n)) / c.scale)
}

// RealDurationForSimHours returns how much wall time n simulated hours take
func (c *GameClock) RealDurationForSimHours(n float64) time.Duration {
	return c.RealDurationForSimMinutes(n * 60)
}
