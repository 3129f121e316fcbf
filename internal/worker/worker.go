package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/vitals-engine/pkg/queue"
	"github.com/jwebster45206/vitals-engine/pkg/storage"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

const (
	defaultMaxActionsPerFrame = 16
	defaultFrameInterval      = 100 * time.Millisecond
	minLockTTL                = 30 * time.Second
	storeTimeout              = 5 * time.Second
)

// ErrCharacterLocked is returned by Start when another worker owns the character
var ErrCharacterLocked = errors.New("character is simulated by another worker")

// ActionSource yields queued actions for a character
type ActionSource interface {
	Drain(ctx context.Context, characterID uuid.UUID, limit int) ([]*queue.Request, error)
}

// EventPublisher receives what the worker reports about a character
type EventPublisher interface {
	PublishActionApplied(ctx context.Context, characterID uuid.UUID, requestID, actionType string) error
	PublishActionFailed(ctx context.Context, characterID uuid.UUID, requestID, actionType, errorMsg string) error
	PublishVitalsUpdated(ctx context.Context, characterID uuid.UUID, snap vitals.Snapshot, morphs map[string]float64) error
	Notifier(ctx context.Context, characterID uuid.UUID) vitals.Notifier
}

// Settings controls the frame loop
type Settings struct {
	FrameInterval      time.Duration
	SaveInterval       time.Duration
	MaxActionsPerFrame int
}

// Worker hosts one character: it advances the game clock every frame,
// applies queued actions, and periodically saves and broadcasts vitals
type Worker struct {
	id          string
	session     *Session
	actions     ActionSource
	store       storage.Storage
	events      EventPublisher
	redisClient *redis.Client
	settings    Settings
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc

	sinceSave time.Duration
}

// New creates a new worker instance. redisClient is used for the character
// lock; nil disables locking.
func New(session *Session, actions ActionSource, store storage.Storage, events EventPublisher, redisClient *redis.Client, settings Settings, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if settings.FrameInterval <= 0 {
		settings.FrameInterval = defaultFrameInterval
	}
	if settings.MaxActionsPerFrame <= 0 {
		settings.MaxActionsPerFrame = defaultMaxActionsPerFrame
	}

	w := &Worker{
		id:          workerID,
		session:     session,
		actions:     actions,
		store:       store,
		events:      events,
		redisClient: redisClient,
		settings:    settings,
		log:         log.With("worker_id", workerID, "character_id", session.ID.String()),
		ctx:         ctx,
		cancel:      cancel,
	}
	if events != nil {
		session.Character.WithNotifier(events.Notifier(ctx, session.ID))
	}
	return w
}

// Start runs the frame loop until Stop is called
func (w *Worker) Start() error {
	locked, err := w.acquireCharacterLock()
	if err != nil {
		return fmt.Errorf("failed to acquire character lock: %w", err)
	}
	if !locked {
		return ErrCharacterLocked
	}
	defer w.releaseCharacterLock()

	w.log.Info("Worker starting",
		"frame_interval", w.settings.FrameInterval,
		"save_interval", w.settings.SaveInterval,
		"time_scale", w.session.Clock.Scale())

	ticker := time.NewTicker(w.settings.FrameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down")
			// the worker context is gone; give the last save its own
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if err := w.save(ctx); err != nil {
				w.log.Error("Final save failed", "error", err)
			}
			return nil
		case now := <-ticker.C:
			w.Frame(now.Sub(last))
			last = now
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested")
	w.cancel()
}

// Frame advances the simulation by one frame of real elapsed time
func (w *Worker) Frame(real time.Duration) {
	w.session.Clock.Advance(real)
	w.processActions()
	w.session.Character.Update()

	w.sinceSave += real
	if w.settings.SaveInterval > 0 && w.sinceSave >= w.settings.SaveInterval {
		w.sinceSave = 0
		w.checkpoint()
	}
}

// processActions drains a bounded batch of queued actions and applies them
func (w *Worker) processActions() {
	if w.actions == nil {
		return
	}
	reqs, err := w.actions.Drain(w.ctx, w.session.ID, w.settings.MaxActionsPerFrame)
	if err != nil {
		w.log.Error("Failed to drain actions", "error", err)
		return
	}
	for _, req := range reqs {
		w.handle(req)
	}
}

func (w *Worker) handle(req *queue.Request) {
	log := w.log.With("request_id", req.RequestID, "type", req.Type)
	if err := w.apply(req); err != nil {
		log.Info("Action rejected", "error", err)
		if w.events != nil {
			if pubErr := w.events.PublishActionFailed(w.ctx, w.session.ID, req.RequestID, string(req.Type), err.Error()); pubErr != nil {
				log.Error("Failed to publish failure event", "error", pubErr)
			}
		}
		return
	}
	log.Debug("Action applied")
	if w.events != nil {
		if err := w.events.PublishActionApplied(w.ctx, w.session.ID, req.RequestID, string(req.Type)); err != nil {
			log.Error("Failed to publish applied event", "error", err)
		}
	}
}

// checkpoint saves the character, broadcasts its vitals and renews the lock
func (w *Worker) checkpoint() {
	ctx, cancel := context.WithTimeout(w.ctx, storeTimeout)
	defer cancel()

	if err := w.save(ctx); err != nil {
		w.log.Error("Failed to save character", "error", err)
	}
	if w.events != nil {
		if err := w.events.PublishVitalsUpdated(ctx, w.session.ID, w.session.Character.Snapshot(), w.session.Morphs()); err != nil {
			w.log.Error("Failed to publish vitals", "error", err)
		}
	}
	w.refreshCharacterLock(ctx)
}

func (w *Worker) save(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	rec := w.session.Record()
	if err := w.store.SaveCharacter(ctx, w.session.ID, rec); err != nil {
		return err
	}
	w.log.Debug("Character saved", "sim_time", rec.Vitals.SimTime, "weight", rec.Vitals.Weight)
	return nil
}

func lockKey(characterID uuid.UUID) string {
	return fmt.Sprintf("character-lock:%s", characterID.String())
}

func (w *Worker) lockTTL() time.Duration {
	return max(3*w.settings.SaveInterval, minLockTTL)
}

// acquireCharacterLock attempts to acquire the character lock
// Returns true if lock was acquired, false if already locked
func (w *Worker) acquireCharacterLock() (bool, error) {
	if w.redisClient == nil {
		return true, nil
	}
	return w.redisClient.SetNX(w.ctx, lockKey(w.session.ID), w.id, w.lockTTL()).Result()
}

func (w *Worker) refreshCharacterLock(ctx context.Context) {
	if w.redisClient == nil {
		return
	}
	if err := w.redisClient.Expire(ctx, lockKey(w.session.ID), w.lockTTL()).Err(); err != nil {
		w.log.Error("Failed to refresh character lock", "error", err)
	}
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// releaseCharacterLock releases the lock if this worker owns it
func (w *Worker) releaseCharacterLock() {
	if w.redisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, w.redisClient, []string{lockKey(w.session.ID)}, w.id).Err(); err != nil {
		w.log.Error("Failed to release character lock", "error", err)
	}
}
