package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

// RedisBackend keeps the snapshot under a single Redis key. SET replaces the
// value atomically.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend constructs a Redis snapshot backend.
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = "classroom:registry:snapshot"
	}
	return &RedisBackend{client: client, key: key}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Read(ctx context.Context) ([]byte, error) {
	if b.client == nil {
		return nil, appErrors.ErrSnapshotMissing
	}
	raw, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrSnapshotMissing
		}
		return nil, fmt.Errorf("redis get %s: %w", b.key, err)
	}
	return raw, nil
}

func (b *RedisBackend) Write(ctx context.Context, payload []byte) error {
	if b.client == nil {
		return fmt.Errorf("redis set %s: client not configured", b.key)
	}
	if err := b.client.Set(ctx, b.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", b.key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (b *RedisBackend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
