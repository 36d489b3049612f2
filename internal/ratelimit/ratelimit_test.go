package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestKeyedLimiterAllowsBurstThenBlocks(t *testing.T) {
	c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewKeyedLimiter(10, time.Minute, WithClock(c.Now))

	for i := 0; i < 10; i++ {
		ok, _ := l.Allow("1.2.3.4")
		assert.True(t, ok, "request %d", i+1)
	}

	ok, retryAfter := l.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 6*time.Second, retryAfter)

	// other clients have their own bucket
	ok, _ = l.Allow("5.6.7.8")
	assert.True(t, ok)
}

func TestKeyedLimiterRefills(t *testing.T) {
	c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewKeyedLimiter(2, 10*time.Second, WithClock(c.Now))

	l.Allow("k")
	l.Allow("k")
	ok, _ := l.Allow("k")
	assert.False(t, ok)

	c.Advance(3 * time.Second)
	ok, retryAfter := l.Allow("k")
	assert.False(t, ok)
	assert.InDelta(t, float64(2*time.Second), float64(retryAfter), float64(time.Millisecond))

	c.Advance(2 * time.Second)
	ok, _ = l.Allow("k")
	assert.True(t, ok)
	ok, _ = l.Allow("k")
	assert.False(t, ok)

	c.Advance(time.Hour)
	for i := 0; i < 2; i++ {
		ok, _ = l.Allow("k")
		assert.True(t, ok)
	}
	ok, _ = l.Allow("k")
	assert.False(t, ok, "bucket never exceeds its capacity")
}

func TestKeyedLimiterDefaults(t *testing.T) {
	l := NewKeyedLimiter(0, 0)
	assert.Equal(t, DefaultPoints, l.points)
	assert.Equal(t, 6*time.Second, l.interval)
}

func TestKeyedLimiterWindowShorterThanPoints(t *testing.T) {
	c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewKeyedLimiter(10, 5*time.Nanosecond, WithClock(c.Now))
	assert.Equal(t, time.Nanosecond, l.interval)

	assert.NotPanics(t, func() {
		for i := 0; i < 10; i++ {
			ok, _ := l.Allow("1.2.3.4")
			assert.True(t, ok)
		}
	})

	ok, retryAfter := l.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, time.Nanosecond, retryAfter)
}

func TestKeyedLimiterSweepsIdleClients(t *testing.T) {
	c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewKeyedLimiter(1, time.Second, WithClock(c.Now))

	for i := 0; i < sweepThreshold; i++ {
		l.Allow(fmt.Sprintf("client-%d", i))
	}
	assert.Equal(t, sweepThreshold, l.Len())

	c.Advance(2 * time.Second)
	l.Allow("newcomer")
	assert.Equal(t, 1, l.Len())
}

func TestKeyedLimiterConcurrent(t *testing.T) {
	l := NewKeyedLimiter(50, time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}
