// Package cache holds the passbook read cache. The passbook is derived data,
// so every chain mutation invalidates the record's entry and the next read
// recomputes it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/models"
)

// PassbookCache stores computed passbooks per land record.
type PassbookCache interface {
	// Get returns the cached rows. The second result is false on a miss.
	Get(ctx context.Context, recordID uuid.UUID) ([]models.PassbookRow, bool, error)
	Set(ctx context.Context, recordID uuid.UUID, rows []models.PassbookRow) error
	Invalidate(ctx context.Context, recordID uuid.UUID) error
	Ping(ctx context.Context) error
	Close() error
}

const passbookPrefix = "passbook:"

// RedisPassbookCache implements PassbookCache using Redis.
type RedisPassbookCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPassbookCache connects to redisURL and checks the connection.
func NewRedisPassbookCache(redisURL string, ttl time.Duration) (*RedisPassbookCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisPassbookCacheWithClient(client, ttl), nil
}

// NewRedisPassbookCacheWithClient creates a cache from an existing Redis client.
func NewRedisPassbookCacheWithClient(client *redis.Client, ttl time.Duration) *RedisPassbookCache {
	return &RedisPassbookCache{client: client, ttl: ttl}
}

func (c *RedisPassbookCache) key(recordID uuid.UUID) string {
	return passbookPrefix + recordID.String()
}

func (c *RedisPassbookCache) Get(ctx context.Context, recordID uuid.UUID) ([]models.PassbookRow, bool, error) {
	data, err := c.client.Get(ctx, c.key(recordID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get passbook: %w", err)
	}

	var rows []models.PassbookRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("unmarshal passbook: %w", err)
	}
	return rows, true, nil
}

func (c *RedisPassbookCache) Set(ctx context.Context, recordID uuid.UUID, rows []models.PassbookRow) error {
	if rows == nil {
		rows = []models.PassbookRow{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal passbook: %w", err)
	}
	if err := c.client.Set(ctx, c.key(recordID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("save passbook: %w", err)
	}
	return nil
}

func (c *RedisPassbookCache) Invalidate(ctx context.Context, recordID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(recordID)).Err(); err != nil {
		return fmt.Errorf("invalidate passbook: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (c *RedisPassbookCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisPassbookCache) Close() error {
	return c.client.Close()
}

// NoopPassbookCache is used when no Redis URL is configured. Every Get misses.
type NoopPassbookCache struct{}

func (NoopPassbookCache) Get(context.Context, uuid.UUID) ([]models.PassbookRow, bool, error) {
	return nil, false, nil
}

func (NoopPassbookCache) Set(context.Context, uuid.UUID, []models.PassbookRow) error { return nil }
func (NoopPassbookCache) Invalidate(context.Context, uuid.UUID) error                { return nil }
func (NoopPassbookCache) Ping(context.Context) error                                 { return nil }
func (NoopPassbookCache) Close() error                                               { return nil }
