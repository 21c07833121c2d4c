package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lborres/studysync/core"
)

var _ core.ViewCache = (*RedisViewCache)(nil)

// versionTTL bounds idle version counters; it must far exceed any view load
const versionTTL = 24 * time.Hour

// RedisViewCache keeps each (user, path) view in one redis hash whose
// fields are the variants, next to a counter that Invalidate advances.
type RedisViewCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// ConnectRedis dials redis and pings it with retries
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*RedisViewCache, error) {
	const maxRetries = 3

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return NewRedisViewCache(client, cfg.TTL, cfg.Prefix), nil
		}
		if i < maxRetries {
			select {
			case <-ctx.Done():
				_ = client.Close()
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to redis after %d retries: %w", maxRetries, lastErr)
}

func NewRedisViewCache(client redis.UniversalClient, ttl time.Duration, prefix string) *RedisViewCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	if prefix == "" {
		prefix = "studysync:view"
	}
	return &RedisViewCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *RedisViewCache) key(userID, path string) string {
	return c.prefix + ":" + userID + ":" + path
}

func (c *RedisViewCache) Get(ctx context.Context, userID, path, variant string) ([]byte, error) {
	payload, err := c.client.HGet(ctx, c.key(userID, path), variant).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read view: %w", err)
	}
	return payload, nil
}

// Set stores a variant and refreshes the view's expiry
func (c *RedisViewCache) Set(ctx context.Context, userID, path, variant string, payload []byte) error {
	key := c.key(userID, path)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, variant, payload)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write view: %w", err)
	}
	return nil
}

// versionKey holds the view's invalidation counter. It outlives the view
// itself so a reset to zero cannot revive a stale load.
func (c *RedisViewCache) versionKey(userID, path string) string {
	return c.key(userID, path) + ":version"
}

func (c *RedisViewCache) Version(ctx context.Context, userID, path string) (uint64, error) {
	version, err := c.client.Get(ctx, c.versionKey(userID, path)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read view version: %w", err)
	}
	return version, nil
}

// SetIfCurrent watches the version key so an Invalidate landing between
// the check and the write aborts the transaction.
func (c *RedisViewCache) SetIfCurrent(ctx context.Context, userID, path, variant string, version uint64, payload []byte) error {
	key := c.key(userID, path)
	versionKey := c.versionKey(userID, path)

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return core.ErrStaleView
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, variant, payload)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrStaleView), errors.Is(err, redis.TxFailedErr):
		return core.ErrStaleView
	default:
		return fmt.Errorf("failed to write view: %w", err)
	}
}

// Invalidate deletes the views and advances their versions in one transaction
func (c *RedisViewCache) Invalidate(ctx context.Context, userID string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, path := range paths {
			versionKey := c.versionKey(userID, path)
			pipe.Del(ctx, c.key(userID, path))
			pipe.Incr(ctx, versionKey)
			pipe.Expire(ctx, versionKey, versionTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate views: %w", err)
	}
	return nil
}

func (c *RedisViewCache) Close() error {
	return c.client.Close()
}
