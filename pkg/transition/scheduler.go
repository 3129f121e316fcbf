package transition

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/jwebster45206/vitals-engine/pkg/clock"
)

// Channel is a keyed set of scalar values a Scheduler interpolates.
// The morph registry is one channel; a character's vital stats are another.
type Channel interface {
	Value(key string) float64
	Set(key string, value float64)
}

// Task is one in-flight interpolation. Start and Duration are simulated time.
type Task struct {
	Key      string
	From     float64
	To       float64
	Start    time.Duration
	Duration time.Duration
}

// Progress returns the interpolation fraction at now, clamped to [0, 1]
func (t *Task) Progress(now time.Duration) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(now-t.Start) / float64(t.Duration)
	return min(max(p, 0), 1)
}

// ValueAt returns the linearly interpolated value at now
func (t *Task) ValueAt(now time.Duration) float64 {
	return t.From + (t.To-t.From)*t.Progress(now)
}

// Scheduler drives at most one transition per key toward its target over
// simulated time. It is polled once per frame via Tick.
type Scheduler struct {
	clock   clock.Clock
	channel Channel
	tasks   map[string]*Task
	logger  *slog.Logger
}

// New creates a scheduler writing to channel
func New(clk clock.Clock, channel Channel, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		clock:   clk,
		channel: channel,
		tasks:   make(map[string]*Task),
		logger:  logger,
	}
}

// Begin starts a transition of key toward target, superseding any in-flight
// transition for the same key. A non-positive duration writes target now.
func (s *Scheduler) Begin(key string, target float64, duration time.Duration) {
	delete(s.tasks, key)

	if duration <= 0 {
		s.channel.Set(key, target)
		return
	}

	s.tasks[key] = &Task{
		Key:      key,
		From:     s.channel.Value(key),
		To:       target,
		Start:    s.clock.Now(),
		Duration: duration,
	}
}

// Tick advances every in-flight transition to the current simulated time.
// Finished transitions snap to their target exactly and are dropped.
func (s *Scheduler) Tick() {
	if len(s.tasks) == 0 {
		return
	}
	now := s.clock.Now()
	for _, key := range slices.Sorted(maps.Keys(s.tasks)) {
		task, ok := s.tasks[key]
		if !ok {
			// cancelled by a channel side effect earlier in this tick
			continue
		}
		if task.Progress(now) >= 1 {
			delete(s.tasks, key)
			s.channel.Set(key, task.To)
			continue
		}
		s.channel.Set(key, task.ValueAt(now))
	}
}

// Shift offsets an in-flight transition's start and end by delta, keeping its
// schedule. Used when a periodic process nudges a value mid-transition.
// Returns false when key has no in-flight transition.
func (s *Scheduler) Shift(key string, delta float64) bool {
	task, ok := s.tasks[key]
	if !ok {
		return false
	}
	task.From += delta
	task.To += delta
	return true
}

// Cancel drops the in-flight transition for key, leaving its current value
func (s *Scheduler) Cancel(key string) {
	delete(s.tasks, key)
}

// Active reports whether key has an in-flight transition
func (s *Scheduler) Active(key string) bool {
	_, ok := s.tasks[key]
	return ok
}

// Target returns the in-flight target for key
func (s *Scheduler) Target(key string) (float64, bool) {
	task, ok := s.tasks[key]
	if !ok {
		return 0, false
	}
	return task.To, true
}

// Tasks returns a copy of every in-flight transition, ordered by key
func (s *Scheduler) Tasks() []Task {
	out := make([]Task, 0, len(s.tasks))
	for _, key := range slices.Sorted(maps.Keys(s.tasks)) {
		out = append(out, *s.tasks[key])
	}
	return out
}

// Len returns the number of in-flight transitions
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Clear cancels every in-flight transition
func (s *Scheduler) Clear() {
	if n := len(s.tasks); n > 0 {
		s.logger.Debug("Cancelling in-flight transitions", "count", n)
	}
	clear(s.tasks)
}
