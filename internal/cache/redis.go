package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis used by Redis.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis stores JSON-encoded values with a Redis expiry so several instances
// share results. Redis errors are logged and treated as misses.
type Redis[V any] struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis[V any](client RedisClient, prefix string, ttl time.Duration, logger *slog.Logger) *Redis[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis[V]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With("component", "redis_cache", "prefix", prefix),
	}
}

func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return zero, false
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("cache entry undecodable", "key", key, "error", err)
		return zero, false
	}
	return v, true
}

func (c *Redis[V]) Set(ctx context.Context, key string, value V) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *Redis[V]) keys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (c *Redis[V]) Stats(ctx context.Context) Stats {
	keys, err := c.keys(ctx)
	if err != nil {
		c.logger.Warn("cache scan failed", "error", err)
		return Stats{Keys: []string{}}
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, c.prefix))
	}
	sort.Strings(out)
	return Stats{Size: len(out), Keys: out}
}

func (c *Redis[V]) Clear(ctx context.Context) {
	keys, err := c.keys(ctx)
	if err != nil {
		c.logger.Warn("cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache clear failed", "error", err)
	}
}
