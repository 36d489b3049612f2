package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultPoints = 10
	DefaultWindow = 60 * time.Second

	// limiters are swept once this many clients are tracked
	sweepThreshold = 10000
)

// KeyedLimiter keeps one token bucket per client key. A bucket holds points
// tokens and regains one every window/points.
type KeyedLimiter struct {
	points   int
	interval time.Duration
	limiters map[string]*rate.Limiter
	now      func() time.Time
	mu       sync.Mutex
}

type Option func(*KeyedLimiter)

func WithClock(now func() time.Time) Option {
	return func(l *KeyedLimiter) {
		l.now = now
	}
}

func NewKeyedLimiter(points int, window time.Duration, opts ...Option) *KeyedLimiter {
	if points <= 0 {
		points = DefaultPoints
	}
	if window <= 0 {
		window = DefaultWindow
	}

	interval := window / time.Duration(points)
	if interval <= 0 {
		interval = time.Nanosecond
	}

	l := &KeyedLimiter{
		points:   points,
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow consumes a token for key. When none is left it reports how long
// until the next one becomes available.
func (l *KeyedLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= sweepThreshold {
			l.sweep(now)
		}
		lim = rate.NewLimiter(rate.Every(l.interval), l.points)
		l.limiters[key] = lim
	}

	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len returns the number of tracked clients.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// must hold l.mu
func (l *KeyedLimiter) sweep(now time.Time) {
	for key, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(l.points) {
			delete(l.limiters, key)
		}
	}
}
