package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/internal/handlers"
)

// Outcomes a step can expect from the worker
const (
	OutcomeApplied = "applied"
	OutcomeFailed  = "failed"
)

// TestSuite is a sequence of actions sent to one running character
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps"`
}

// TestStep posts one action and checks what the worker did with it
type TestStep struct {
	Name         string                 `json:"name,omitempty"`
	Action       handlers.ActionRequest `json:"action"`
	Expectations Expectations           `json:"expect"`
}

// Expectations are checked after a step. Deltas compare the saved record
// before and after the step; they force the runner to wait for a save.
type Expectations struct {
	Outcome        string             `json:"outcome,omitempty"`
	ErrorContains  string             `json:"error_contains,omitempty"`
	GoldDelta      *int               `json:"gold_delta,omitempty"`
	InventoryDelta map[string]int     `json:"inventory_delta,omitempty"`
	Loadout        map[string]string  `json:"loadout,omitempty"`
	MorphMin       map[string]float64 `json:"morph_min,omitempty"`
	Movement       string             `json:"movement,omitempty"`
}

// NeedsRecord reports whether the step must wait for a saved record
func (e Expectations) NeedsRecord() bool {
	return e.GoldDelta != nil || len(e.InventoryDelta) > 0 || len(e.Loadout) > 0 ||
		len(e.MorphMin) > 0 || e.Movement != ""
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
}

// TestJob represents a test suite loaded from a case file
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	Error     error
	Duration  time.Duration
	Character uuid.UUID
}
