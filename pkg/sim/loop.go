package sim

import (
	"log/slog"
	"slices"
	"time"

	"github.com/jwebster45206/vitals-engine/pkg/clock"
)

// Process is a periodic step run on simulated-time intervals
type Process struct {
	Name     string
	interval func() time.Duration
	step     func()
	last     time.Duration
}

// Timer is a one-shot callback scheduled at a simulated time
type Timer struct {
	id        uint64
	at        time.Duration
	fn        func()
	cancelled bool
}

// Cancel prevents the timer from firing. Safe to call more than once.
func (t *Timer) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

// At returns the simulated time the timer fires at
func (t *Timer) At() time.Duration {
	return t.at
}

// Loop multiplexes periodic processes and one-shot timers onto a single
// simulation thread. Tick is called once per frame.
type Loop struct {
	clock     clock.Clock
	processes []*Process
	timers    []*Timer
	nextID    uint64
	logger    *slog.Logger
}

// NewLoop creates an empty loop polling clk
func NewLoop(clk clock.Clock, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		clock:  clk,
		logger: logger,
	}
}

// Every registers a periodic process. interval is re-read every tick so a
// configurable period can change at runtime. The first step runs one full
// interval after registration.
func (l *Loop) Every(name string, interval func() time.Duration, step func()) *Process {
	p := &Process{
		Name:     name,
		interval: interval,
		step:     step,
		last:     l.clock.Now(),
	}
	l.processes = append(l.processes, p)
	return p
}

// EveryFixed registers a periodic process with a constant interval
func (l *Loop) EveryFixed(name string, interval time.Duration, step func()) *Process {
	return l.Every(name, func() time.Duration { return interval }, step)
}

// At schedules fn to run on the first tick at or after when
func (l *Loop) At(when time.Duration, fn func()) *Timer {
	l.nextID++
	t := &Timer{id: l.nextID, at: when, fn: fn}
	l.timers = append(l.timers, t)
	return t
}

// After schedules fn to run d after the current simulated time
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	return l.At(l.clock.Now()+d, fn)
}

// Tick runs every process for each whole interval elapsed since its last run,
// then fires due timers in time order. A resumed simulation therefore applies
// N integer steps rather than one fractional one.
func (l *Loop) Tick() {
	now := l.clock.Now()

	for _, p := range l.processes {
		interval := p.interval()
		if interval <= 0 {
			p.last = now
			continue
		}
		n := (now - p.last) / interval
		if n <= 0 {
			continue
		}
		if n > 1 {
			l.logger.Debug("Catching up periodic process", "process", p.Name, "steps", int64(n))
		}
		for range n {
			p.step()
		}
		p.last += n * interval
	}

	l.fireTimers(now)
}

func (l *Loop) fireTimers(now time.Duration) {
	// Timers scheduled by callbacks in this pass are picked up by the loop
	// below if they are already due.
	for {
		due := -1
		for i, t := range l.timers {
			if t.cancelled || t.at > now {
				continue
			}
			if due < 0 || t.at < l.timers[due].at || (t.at == l.timers[due].at && t.id < l.timers[due].id) {
				due = i
			}
		}
		if due < 0 {
			break
		}
		t := l.timers[due]
		l.timers = slices.Delete(l.timers, due, due+1)
		t.fn()
	}
	l.timers = slices.DeleteFunc(l.timers, func(t *Timer) bool { return t.cancelled })
}

// Pending returns the number of timers waiting to fire
func (l *Loop) Pending() int {
	n := 0
	for _, t := range l.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Stop drops every process and timer
func (l *Loop) Stop() {
	l.processes = nil
	l.timers = nil
}
