package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/vitals-engine/pkg/storage"
)

const characterPrefix = "character:"

// Character operations (Redis-backed)

func (r *RedisStorage) SaveCharacter(ctx context.Context, id uuid.UUID, rec *storage.CharacterRecord) error {
	if rec == nil {
		return errors.New("character record cannot be nil")
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("Failed to marshal character", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	// characters are long-lived, no expiry
	if err := r.client.Set(ctx, characterPrefix+id.String(), data, 0).Err(); err != nil {
		r.logger.Error("Failed to save character", "uuid", id, "error", err)
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadCharacter(ctx context.Context, id uuid.UUID) (*storage.CharacterRecord, error) {
	data, err := r.client.Get(ctx, characterPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Character not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load character", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load character: %w", err)
	}

	var rec storage.CharacterRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.logger.Error("Failed to unmarshal character", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}
	return &rec, nil
}

func (r *RedisStorage) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, characterPrefix+id.String()).Err(); err != nil {
		r.logger.Error("Failed to delete character", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListCharacters(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	iter := r.client.Scan(ctx, 0, characterPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id, err := uuid.Parse(strings.TrimPrefix(iter.Val(), characterPrefix))
		if err != nil {
			r.logger.Warn("Skipping malformed character key", "key", iter.Val())
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return ids, nil
}
