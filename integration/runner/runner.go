package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/internal/handlers"
	"github.com/jwebster45206/vitals-engine/internal/services/events"
	"github.com/jwebster45206/vitals-engine/pkg/storage"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running API and worker
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}
	return suite, nil
}

// RunSuite executes a suite against the character a worker is simulating
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite, characterID uuid.UUID) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:       TestJob{Name: suite.Name, Suite: suite},
		Results:   make([]TestResult, 0, len(suite.Steps)),
		Character: characterID,
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stream, err := r.subscribe(streamCtx, characterID)
	if err != nil {
		result.Error = err
		return result, err
	}

	for i, step := range suite.Steps {
		if step.Name == "" {
			step.Name = fmt.Sprintf("%s %d", step.Action.Type, i+1)
		}
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		stepResult := r.runStep(ctx, characterID, step, stream)
		result.Results = append(result.Results, stepResult)

		if !stepResult.Success {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if r.ErrorHandlingMode == ErrorHandlingExit {
				result.Error = fmt.Errorf("step %q failed: %w", step.Name, stepResult.Error)
				break
			}
			continue
		}
		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	if result.Error == nil {
		for _, sr := range result.Results {
			if !sr.Success {
				result.Error = errors.New("one or more steps failed")
				break
			}
		}
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, characterID uuid.UUID, step TestStep, stream <-chan events.Event) TestResult {
	start := time.Now()
	res := TestResult{StepName: step.Name}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	err := r.executeStep(ctx, characterID, step, stream)
	res.Duration = time.Since(start)
	res.Error = err
	res.Success = err == nil
	return res
}

func (r *Runner) executeStep(ctx context.Context, characterID uuid.UUID, step TestStep, stream <-chan events.Event) error {
	exp := step.Expectations
	var before *storage.CharacterRecord
	if exp.NeedsRecord() {
		var err error
		if before, err = r.GetCharacter(ctx, characterID); err != nil {
			return fmt.Errorf("failed to read record before step: %w", err)
		}
	}

	requestID, err := r.PostAction(ctx, characterID, step.Action)
	if err != nil {
		return err
	}

	outcome, err := waitFor(ctx, stream, func(e events.Event) bool {
		return e.RequestID == requestID &&
			(e.Type == events.EventTypeActionApplied || e.Type == events.EventTypeActionFailed)
	})
	if err != nil {
		return fmt.Errorf("no outcome for request %s: %w", requestID, err)
	}
	if err := checkOutcome(exp, outcome); err != nil {
		return err
	}

	if !exp.NeedsRecord() {
		return nil
	}
	if _, err := waitFor(ctx, stream, func(e events.Event) bool {
		return e.Type == events.EventTypeVitalsUpdated
	}); err != nil {
		return fmt.Errorf("no save after request %s: %w", requestID, err)
	}
	after, err := r.GetCharacter(ctx, characterID)
	if err != nil {
		return fmt.Errorf("failed to read record after step: %w", err)
	}
	return CheckRecord(exp, before, after)
}

func checkOutcome(exp Expectations, e events.Event) error {
	want := exp.Outcome
	if want == "" {
		want = OutcomeApplied
	}
	got := OutcomeApplied
	if e.Type == events.EventTypeActionFailed {
		got = OutcomeFailed
	}
	if got != want {
		return fmt.Errorf("expected action %s, got %s (%v)", want, got, e.Data["error"])
	}
	if exp.ErrorContains != "" {
		msg, _ := e.Data["error"].(string)
		if !strings.Contains(msg, exp.ErrorContains) {
			return fmt.Errorf("expected error containing %q, got %q", exp.ErrorContains, msg)
		}
	}
	return nil
}

// CheckRecord compares two saved records against the step's expectations
func CheckRecord(exp Expectations, before, after *storage.CharacterRecord) error {
	if after == nil {
		return errors.New("character has no saved record")
	}
	if before == nil {
		before = &storage.CharacterRecord{}
	}

	var errs []error
	if exp.GoldDelta != nil {
		if got := after.Gold - before.Gold; got != *exp.GoldDelta {
			errs = append(errs, fmt.Errorf("gold changed by %d, expected %d", got, *exp.GoldDelta))
		}
	}
	for item, want := range exp.InventoryDelta {
		if got := count(after, item) - count(before, item); got != want {
			errs = append(errs, fmt.Errorf("%s changed by %d, expected %d", item, got, want))
		}
	}
	for slot, want := range exp.Loadout {
		got := ""
		for s, id := range after.Loadout {
			if string(s) == slot {
				got = id
			}
		}
		if got != want {
			errs = append(errs, fmt.Errorf("slot %s holds %q, expected %q", slot, got, want))
		}
	}
	for name, floor := range exp.MorphMin {
		if got := after.Morphs[name]; got < floor {
			errs = append(errs, fmt.Errorf("morph %s is %.1f, expected at least %.1f", name, got, floor))
		}
	}
	if exp.Movement != "" && after.Movement != exp.Movement {
		errs = append(errs, fmt.Errorf("movement is %q, expected %q", after.Movement, exp.Movement))
	}
	return errors.Join(errs...)
}

func count(rec *storage.CharacterRecord, item string) int {
	n := 0
	for _, s := range rec.Inventory {
		if s.ItemID == item {
			n += s.Quantity
		}
	}
	return n
}

func waitFor(ctx context.Context, stream <-chan events.Event, match func(events.Event) bool) (events.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return events.Event{}, ctx.Err()
		case e, ok := <-stream:
			if !ok {
				return events.Event{}, errors.New("event stream closed")
			}
			if match(e) {
				return e, nil
			}
		}
	}
}

// PostAction queues an action and returns its request ID
func (r *Runner) PostAction(ctx context.Context, characterID uuid.UUID, action handlers.ActionRequest) (string, error) {
	body, err := json.Marshal(action)
	if err != nil {
		return "", fmt.Errorf("failed to marshal action: %w", err)
	}

	url := fmt.Sprintf("%s/v1/characters/%s/actions", r.BaseURL, characterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create action request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send action request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("actions endpoint returned %d (expected 202): %s", resp.StatusCode, string(b))
	}

	var ack handlers.ActionResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("failed to parse action response: %w", err)
	}
	return ack.RequestID, nil
}

// GetCharacter returns the last saved record, or nil if none exists yet
func (r *Runner) GetCharacter(ctx context.Context, characterID uuid.UUID) (*storage.CharacterRecord, error) {
	url := fmt.Sprintf("%s/v1/characters/%s", r.BaseURL, characterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create character request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send character request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("character endpoint returned %d: %s", resp.StatusCode, string(b))
	}

	var rec storage.CharacterRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode character: %w", err)
	}
	return &rec, nil
}

// subscribe opens the character's SSE stream and returns its events. The
// channel closes when ctx ends or the stream drops.
func (r *Runner) subscribe(ctx context.Context, characterID uuid.UUID) (<-chan events.Event, error) {
	url := fmt.Sprintf("%s/v1/events/characters/%s", r.BaseURL, characterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSE request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSE: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(b))
	}

	out := make(chan events.Event, 64)
	connected := make(chan struct{})
	go func() {
		defer close(out)
		defer func() { _ = resp.Body.Close() }()
		readEvents(ctx, resp.Body, out, connected)
	}()

	select {
	case <-connected:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.Timeout):
		return nil, errors.New("timed out waiting for SSE connected event")
	}
}

// readEvents parses an SSE body. The "connected" event closes connected;
// every other event is decoded as an events.Event.
func readEvents(ctx context.Context, body io.Reader, out chan<- events.Event, connected chan<- struct{}) {
	scanner := bufio.NewScanner(body)
	var name, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			if name == "connected" {
				close(connected)
			} else {
				var e events.Event
				if err := json.Unmarshal([]byte(data), &e); err == nil {
					select {
					case out <- e:
					case <-ctx.Done():
						return
					}
				}
			}
			name, data = "", ""
		}
	}
}
