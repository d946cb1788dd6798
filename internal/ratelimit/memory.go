package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepThreshold = 1024

// InProcessLimiter keeps fixed-window counters in memory. Counts are per
// process, so it is only exact for a single instance.
type InProcessLimiter struct {
	limit    int
	window   time.Duration
	now      func() time.Time
	mu       sync.Mutex
	counters map[string]*counter
}

type counter struct {
	count    int
	windowAt time.Time
}

func NewInProcessLimiter(limit int, window time.Duration) *InProcessLimiter {
	return &InProcessLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
}

func (l *InProcessLimiter) Allow(_ context.Context, key string) (Result, error) {
	if l.limit <= 0 {
		return Result{Allowed: true}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowAt) >= l.window {
		if len(l.counters) >= sweepThreshold {
			l.sweep(now)
		}
		c = &counter{windowAt: now}
		l.counters[key] = c
	}
	c.count++

	return newResult(c.count, l.limit, c.windowAt.Add(l.window).Sub(now)), nil
}

// sweep drops expired windows. Callers hold l.mu.
func (l *InProcessLimiter) sweep(now time.Time) {
	for key, c := range l.counters {
		if now.Sub(c.windowAt) >= l.window {
			delete(l.counters, key)
		}
	}
}
