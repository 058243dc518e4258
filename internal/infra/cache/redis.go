// Package cache holds the Redis-backed deception result cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/persona-analyzer/internal/domain/deception"
)

const keyPrefix = "deception:"

// DeceptionCache stores classification results keyed by a digest of the text.
type DeceptionCache struct {
	rdb *redis.Client
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx2, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx2).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func NewDeceptionCache(rdb *redis.Client) *DeceptionCache {
	return &DeceptionCache{rdb: rdb}
}

// Key returns the cache key for text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get implements deception.Cache. A miss is (zero, false, nil).
func (c *DeceptionCache) Get(ctx context.Context, text string) (deception.Result, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return deception.Result{}, false, nil
	}
	if err != nil {
		return deception.Result{}, false, fmt.Errorf("cache get: %w", err)
	}
	var res deception.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return deception.Result{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return res, true, nil
}

// Set implements deception.Cache. ttl <= 0 stores without expiry.
func (c *DeceptionCache) Set(ctx context.Context, text string, res deception.Result, ttl time.Duration) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, Key(text), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable; used by the health endpoint.
func (c *DeceptionCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
