package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/vitals-engine/pkg/queue"
)

// ActionQueue holds pending character actions, one Redis list per character
type ActionQueue struct {
	client *Client
}

func NewActionQueue(client *Client) *ActionQueue {
	return &ActionQueue{
		client: client,
	}
}

func queueKey(characterID uuid.UUID) string {
	return fmt.Sprintf("character-actions:%s", characterID.String())
}

// Enqueue validates req and appends it to its character's queue
func (aq *ActionQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	if req == nil {
		return errors.New("request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return err
	}
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}
	if err := aq.client.rdb.RPush(ctx, queueKey(req.CharacterID), data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue action: %w", err)
	}
	return nil
}

// Drain removes and returns up to limit queued actions in FIFO order.
// limit <= 0 drains everything. Entries that cannot be parsed are dropped
// with a warning.
func (aq *ActionQueue) Drain(ctx context.Context, characterID uuid.UUID, limit int) ([]*queue.Request, error) {
	key := queueKey(characterID)
	end := int64(-1)
	if limit > 0 {
		end = int64(limit - 1)
	}

	var lrange *redis.StringSliceCmd
	_, err := aq.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, end)
		if limit > 0 {
			pipe.LTrim(ctx, key, end+1, -1)
		} else {
			pipe.Del(ctx, key)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to drain actions: %w", err)
	}

	raw := lrange.Val()
	reqs := make([]*queue.Request, 0, len(raw))
	for _, entry := range raw {
		req, err := queue.FromJSON([]byte(entry))
		if err != nil {
			aq.client.logger.Warn("Dropping unparseable action", "character_id", characterID.String(), "error", err)
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Peek returns up to limit queued actions without removing them
func (aq *ActionQueue) Peek(ctx context.Context, characterID uuid.UUID, limit int) ([]*queue.Request, error) {
	end := int64(limit - 1)
	if limit <= 0 {
		end = -1 // Get all
	}
	raw, err := aq.client.rdb.LRange(ctx, queueKey(characterID), 0, end).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to peek actions: %w", err)
	}
	reqs := make([]*queue.Request, 0, len(raw))
	for _, entry := range raw {
		if req, err := queue.FromJSON([]byte(entry)); err == nil {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

// Clear removes all queued actions for a character
func (aq *ActionQueue) Clear(ctx context.Context, characterID uuid.UUID) error {
	if err := aq.client.rdb.Del(ctx, queueKey(characterID)).Err(); err != nil {
		return fmt.Errorf("failed to clear action queue: %w", err)
	}
	return nil
}

// Depth returns the number of actions queued for a character
func (aq *ActionQueue) Depth(ctx context.Context, characterID uuid.UUID) (int, error) {
	count, err := aq.client.rdb.LLen(ctx, queueKey(characterID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}
