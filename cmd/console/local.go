package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/internal/worker"
	"github.com/jwebster45206/vitals-engine/pkg/queue"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

// localQueue is an in-process action queue for a single character
type localQueue struct {
	mu   sync.Mutex
	reqs []*queue.Request
}

var _ worker.ActionSource = (*localQueue)(nil)

func (q *localQueue) Push(req *queue.Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = append(q.reqs, req)
}

func (q *localQueue) Drain(ctx context.Context, characterID uuid.UUID, limit int) ([]*queue.Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out, rest []*queue.Request
	for _, r := range q.reqs {
		if r.CharacterID == characterID && (limit <= 0 || len(out) < limit) {
			out = append(out, r)
			continue
		}
		rest = append(rest, r)
	}
	q.reqs = rest
	return out, nil
}

// feedLine is one entry of the console's event log
type feedLine struct {
	At   time.Time
	Kind string
	Text string
}

// feed collects worker events and warning logs for display
type feed struct {
	mu    sync.Mutex
	lines []feedLine
	limit int
}

var _ worker.EventPublisher = (*feed)(nil)

func newFeed(limit int) *feed {
	return &feed{limit: limit}
}

func (f *feed) add(kind, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, feedLine{At: time.Now(), Kind: kind, Text: text})
	if over := len(f.lines) - f.limit; f.limit > 0 && over > 0 {
		f.lines = f.lines[over:]
	}
}

// Lines returns a copy of the log, oldest first
func (f *feed) Lines() []feedLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]feedLine(nil), f.lines...)
}

// Write lets the feed back a slog handler
func (f *feed) Write(p []byte) (int, error) {
	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			f.add("log", line)
		}
	}
	return len(p), nil
}

func (f *feed) PublishActionApplied(ctx context.Context, characterID uuid.UUID, requestID, actionType string) error {
	f.add("ok", actionType)
	return nil
}

func (f *feed) PublishActionFailed(ctx context.Context, characterID uuid.UUID, requestID, actionType, errorMsg string) error {
	f.add("error", fmt.Sprintf("%s: %s", actionType, errorMsg))
	return nil
}

func (f *feed) PublishVitalsUpdated(ctx context.Context, characterID uuid.UUID, snap vitals.Snapshot, morphs map[string]float64) error {
	f.add("save", fmt.Sprintf("saved at %s, weight %.1f kg", snap.SimTime.Truncate(time.Second), snap.Weight))
	return nil
}

func (f *feed) Notifier(ctx context.Context, characterID uuid.UUID) vitals.Notifier {
	return vitals.NotifierFunc(func(c vitals.Condition) {
		f.add("condition", string(c))
	})
}
