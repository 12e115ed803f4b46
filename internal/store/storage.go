// internal/store/storage.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"drivecash/internal/common/config"
	"drivecash/internal/common/errors"
	"drivecash/internal/models"

	"github.com/redis/go-redis/v9"
)

// Storage persists the whole draft store under a single key. It is a
// cache of the session, not a system of record; callers treat failures
// as advisory.
type Storage interface {
	Load(ctx context.Context) (*models.Store, error)
	Save(ctx context.Context, state *models.Store) error
	Delete(ctx context.Context) error
}

// RedisStorage keeps the serialized store in one Redis key.
type RedisStorage struct {
	client *redis.Client
	key    string
}

// NewRedisStorage creates the Redis-backed storage.
func NewRedisStorage(cfg config.RedisConfig, key string) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	return &RedisStorage{client: rdb, key: key}
}

// NewRedisStorageWithClient wraps an existing client (used by tests).
func NewRedisStorageWithClient(client *redis.Client, key string) *RedisStorage {
	return &RedisStorage{client: client, key: key}
}

// Ping tests the Redis connection.
func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot. A missing key yields (nil, nil).
func (r *RedisStorage) Load(ctx context.Context) (*models.Store, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft store: %w", err)
	}
	var state models.Store
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode draft store: %w", err)
	}
	return &state, nil
}

// Save serializes and writes the snapshot. No TTL: drafts survive until
// deleted or replaced.
func (r *RedisStorage) Save(ctx context.Context, state *models.Store) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode draft store: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return errors.NewStorageUnavailableError(err)
	}
	return nil
}

// Delete removes the snapshot key.
func (r *RedisStorage) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("delete draft store: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
