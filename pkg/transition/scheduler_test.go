package transition

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jwebster45206/vitals-engine/pkg/clock"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

type mapChannel struct {
	values map[string]float64
	writes map[string][]float64
}

func newMapChannel() *mapChannel {
	return &mapChannel{
		values: make(map[string]float64),
		writes: make(map[string][]float64),
	}
}

func (m *mapChannel) Value(key string) float64 { return m.values[key] }

func (m *mapChannel) Set(key string, v float64) {
	m.values[key] = v
	m.writes[key] = append(m.writes[key], v)
}

func TestScheduler_ZeroDurationAppliesImmediately(t *testing.T) {
	clk := clock.NewManualClock(0)
	ch := newMapChannel()
	s := New(clk, ch, noopLogger)

	s.Begin("belly", 75, 0)

	if ch.values["belly"] != 75 {
		t.Errorf("value = %v, want 75", ch.values["belly"])
	}
	if s.Len() != 0 {
		t.Errorf("zero-duration Begin spawned %d tasks", s.Len())
	}
}

func TestScheduler_LinearInterpolation(t *testing.T) {
	clk := clock.NewManualClock(0)
	ch := newMapChannel()
	s := New(clk, ch, noopLogger)

	s.Begin("belly", 100, 10*time.Minute)

	tests := []struct {
		advance time.Duration
		want    float64
	}{
		{0, 0},
		{2 * time.Minute, 20},
		{3 * time.Minute, 50},
		{4 * time.Minute, 90},
	}
	for _, tt := range tests {
		clk.Advance(tt.advance)
		s.Tick()
		if got := ch.values["belly"]; got != tt.want {
			t.Errorf("at %v value = %v, want %v", clk.Now(), got, tt.want)
		}
	}
	if !s.Active("belly") {
		t.Error("transition should still be active before completion")
	}

	clk.Advance(5 * time.Minute)
	s.Tick()
	if ch.values["belly"] != 100 {
		t.Errorf("final value = %v, want exactly 100", ch.values["belly"])
	}
	if s.Active("belly") {
		t.Error("transition should be finished")
	}
}

func TestScheduler_SupersedeUsesOnlySecondTransition(t *testing.T) {
	clk := clock.NewManualClock(0)
	ch := newMapChannel()
	s := New(clk, ch, noopLogger)

	// A: 0 -> 100 over 10m
	s.Begin("thighs", 100, 10*time.Minute)
	clk.Advance(5 * time.Minute)
	s.Tick()
	if ch.values["thighs"] != 50 {
		t.Fatalf("midpoint of A = %v, want 50", ch.values["thighs"])
	}

	// B: from current (50) -> 20 over 10m
	s.Begin("thighs", 20, 10*time.Minute)
	if s.Len() != 1 {
		t.Fatalf("expected exactly one live transition, got %d", s.Len())
	}
	if target, _ := s.Target("thighs"); target != 20 {
		t.Errorf("live target = %v, want 20", target)
	}

	clk.Advance(5 * time.Minute)
	s.Tick()
	if ch.values["thighs"] != 35 {
		t.Errorf("midpoint of B = %v, want 35", ch.values["thighs"])
	}

	clk.Advance(10 * time.Minute)
	s.Tick()
	if ch.values["thighs"] != 20 {
		t.Errorf("final value = %v, want B's target 20", ch.values["thighs"])
	}
	// Nothing from A should be written after B started
	for _, v := range ch.writes["thighs"][1:] {
		if v > 50 {
			t.Errorf("observed value %v from superseded transition", v)
		}
	}
}

func TestScheduler_ZeroDurationCancelsInFlight(t *testing.T) {
	clk := clock.NewManualClock(0)
	ch := newMapChannel()
	s := New(clk, ch, noopLogger)

	s.Begin("chest", 80, time.Minute)
	s.Begin("chest", 10, 0)

	clk.Advance(2 * time.Minute)
	s.Tick()
	if ch.values["chest"] != 10 {
		t.Errorf("value = %v, want 10", ch.values["chest"])
	}
}

func TestScheduler_PausedClockHoldsValue(t *testing.T) {
	clk := clock.NewGameClock(60)
	ch := newMapChannel()
	s := New(clk, ch, noopLogger)

	s.Begin("belly", 60, time.Minute)
	clk.Advance(500 * time.Millisecond) // 30 simulated seconds
	s.Tick()
	if ch.values["belly"] != 30 {
		t.Fatalf("value = %v, want 30", ch.values["belly"])
	}

	clk.Pause()
	clk.Advance(10 * time.Second)
	s.Tick()
	if ch.values["belly"] != 30 {
		t.Errorf("value moved while paused: %v", ch.values["belly"])
	}
}

func TestScheduler_ShiftKeepsSchedule(t *testing.T) {
	clk := clock.NewManualClock(0)
	ch := newMapChannel()
	ch.values["hydration"] = 50
	s := New(clk, ch, noopLogger)

	s.Begin("hydration", 90, 4*time.Minute)
	clk.Advance(2 * time.Minute)
	s.Tick()
	if ch.values["hydration"] != 70 {
		t.Fatalf("value = %v, want 70", ch.values["hydration"])
	}

	if !s.Shift("hydration", -10) {
		t.Fatal("Shift should report an in-flight transition")
	}
	clk.Advance(2 * time.Minute)
	s.Tick()
	if ch.values["hydration"] != 80 {
		t.Errorf("final value = %v, want 80", ch.values["hydration"])
	}

	if s.Shift("hydration", 1) {
		t.Error("Shift on finished transition should return false")
	}
}

func TestScheduler_CancelAndClear(t *testing.T) {
	clk := clock.NewManualClock(0)
	ch := newMapChannel()
	s := New(clk, ch, noopLogger)

	s.Begin("a", 10, time.Minute)
	s.Begin("b", 10, time.Minute)
	s.Cancel("a")
	if s.Active("a") || !s.Active("b") {
		t.Error("Cancel should only drop the named transition")
	}
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d", s.Len())
	}
}

func TestScheduler_TasksCopiesInFlight(t *testing.T) {
	clk := clock.NewManualClock(time.Hour)
	ch := newMapChannel()
	s := New(clk, ch, noopLogger)

	s.Begin("urine", 40, time.Minute)
	s.Begin("belly", 100, 10*time.Minute)
	s.Begin("smile", 5, 0)

	tasks := s.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].Key != "belly" || tasks[1].Key != "urine" {
		t.Errorf("tasks not ordered by key: %q, %q", tasks[0].Key, tasks[1].Key)
	}
	if tasks[0].To != 100 || tasks[0].Start != time.Hour || tasks[0].Duration != 10*time.Minute {
		t.Errorf("unexpected task %+v", tasks[0])
	}

	tasks[0].To = 1
	if target, _ := s.Target("belly"); target != 100 {
		t.Errorf("mutating the copy changed the scheduler: target = %v", target)
	}
}
