package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/vitals-engine/pkg/storage"
)

// RedisStorage implements the Storage interface using Redis for characters
// and filesystem for static resources (item catalog, merchants)
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance from a redis:// URL
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  redis.NewClient(opt),
		logger:  logger,
		dataDir: dataDir,
	}, nil
}

// Client returns the underlying Redis client, shared with the event broadcaster
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

const (
	connectAttempts = 12
	firstRetryDelay = 500 * time.Millisecond
	maxRetryDelay   = 10 * time.Second
)

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis: %w", err)
	}
	r.logger.Debug("Redis connection closed")
	return nil
}

// WaitForConnection blocks until Redis answers, retrying with a doubling
// delay. Used at process startup, where Redis may still be booting.
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	return r.waitForConnection(ctx, connectAttempts, firstRetryDelay)
}

func (r *RedisStorage) waitForConnection(ctx context.Context, attempts int, delay time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = r.Ping(ctx); err == nil {
			r.logger.Info("Redis connection established", "attempts", attempt)
			return nil
		}
		if attempt == attempts {
			break
		}
		r.logger.Debug("Redis not ready", "error", err, "attempt", attempt, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
		case <-timer.C:
		}
		delay = min(delay*2, maxRetryDelay)
	}
	return fmt.Errorf("redis unavailable after %d attempts: %w", attempts, err)
}
