// Package cache holds time-boxed results keyed by string.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Cache is implemented by the in-memory TTL cache and the Redis cache.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
	Stats(ctx context.Context) Stats
	Clear(ctx context.Context)
}

type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL is a mutex-guarded map whose entries expire ttl after they were
// written. When maxEntries is reached the oldest entry is evicted.
type TTL[V any] struct {
	mu         sync.Mutex
	items      map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type Option func(*options)

type options struct {
	now func() time.Time
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewTTL creates a cache. maxEntries <= 0 means unbounded.
func NewTTL[V any](ttl time.Duration, maxEntries int, opts ...Option) *TTL[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[V]{
		items:      make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        o.now,
	}
}

func (c *TTL[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[V]) Set(_ context.Context, key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.purgeExpired(now)
		if len(c.items) >= c.maxEntries {
			c.evictOldest()
		}
	}
	c.items[key] = entry[V]{value: value, storedAt: now}
}

// Stats reports live entries only.
func (c *TTL[V]) Stats(_ context.Context) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired(c.now())
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Stats{Size: len(keys), Keys: keys}
}

func (c *TTL[V]) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]entry[V])
}

// must hold c.mu
func (c *TTL[V]) purgeExpired(now time.Time) {
	for k, e := range c.items {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.items, k)
		}
	}
}

// must hold c.mu
func (c *TTL[V]) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.items {
		if !found || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.storedAt, true
		}
	}
	if found {
		delete(c.items, oldestKey)
	}
}
