package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeActionQueued    EventType = "action.queued"
	EventTypeActionApplied   EventType = "action.applied"
	EventTypeActionFailed    EventType = "action.failed"
	EventTypeVitalsUpdated   EventType = "vitals.updated"
	EventTypeConditionRaised EventType = "condition.raised"
)

// EventTypes lists every event the broadcaster publishes
func EventTypes() []EventType {
	return []EventType{
		EventTypeActionQueued, EventTypeActionApplied, EventTypeActionFailed,
		EventTypeVitalsUpdated, EventTypeConditionRaised,
	}
}

// Event represents a generic event structure
type Event struct {
	Type        EventType      `json:"type"`
	RequestID   string         `json:"request_id,omitempty"`
	CharacterID string         `json:"character_id,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Channel returns the pub/sub channel for one character's events
func Channel(characterID uuid.UUID) string {
	return fmt.Sprintf("character-events:%s", characterID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishActionQueued publishes an action.queued event
func (b *Broadcaster) PublishActionQueued(ctx context.Context, characterID uuid.UUID, requestID, actionType string) error {
	return b.publish(ctx, characterID, Event{
		Type:      EventTypeActionQueued,
		RequestID: requestID,
		Data: map[string]any{
			"status": "queued",
			"type":   actionType,
		},
	})
}

// PublishActionApplied publishes an action.applied event
func (b *Broadcaster) PublishActionApplied(ctx context.Context, characterID uuid.UUID, requestID, actionType string) error {
	return b.publish(ctx, characterID, Event{
		Type:      EventTypeActionApplied,
		RequestID: requestID,
		Data: map[string]any{
			"status": "applied",
			"type":   actionType,
		},
	})
}

// PublishActionFailed publishes an action.failed event
func (b *Broadcaster) PublishActionFailed(ctx context.Context, characterID uuid.UUID, requestID, actionType, errorMsg string) error {
	return b.publish(ctx, characterID, Event{
		Type:      EventTypeActionFailed,
		RequestID: requestID,
		Data: map[string]any{
			"status": "failed",
			"type":   actionType,
			"error":  errorMsg,
		},
	})
}

// PublishVitalsUpdated publishes the character's current vitals and effective
// morph values
func (b *Broadcaster) PublishVitalsUpdated(ctx context.Context, characterID uuid.UUID, snap vitals.Snapshot, morphs map[string]float64) error {
	return b.publish(ctx, characterID, Event{
		Type: EventTypeVitalsUpdated,
		Data: map[string]any{
			"vitals": snap,
			"morphs": morphs,
		},
	})
}

// PublishConditionRaised publishes a terminal condition
func (b *Broadcaster) PublishConditionRaised(ctx context.Context, characterID uuid.UUID, cond vitals.Condition) error {
	return b.publish(ctx, characterID, Event{
		Type: EventTypeConditionRaised,
		Data: map[string]any{
			"condition": string(cond),
		},
	})
}

// Notifier adapts the broadcaster to a character's terminal-condition hook.
// Publish failures are logged; the simulation is not interrupted.
func (b *Broadcaster) Notifier(ctx context.Context, characterID uuid.UUID) vitals.Notifier {
	return vitals.NotifierFunc(func(cond vitals.Condition) {
		if err := b.PublishConditionRaised(ctx, characterID, cond); err != nil {
			b.logger.Warn("Terminal condition not broadcast",
				"character_id", characterID.String(),
				"condition", string(cond),
				"error", err)
		}
	})
}

// publish publishes an event to the character-specific channel
func (b *Broadcaster) publish(ctx context.Context, characterID uuid.UUID, event Event) error {
	channel := Channel(characterID)
	event.CharacterID = characterID.String()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)

	return nil
}
