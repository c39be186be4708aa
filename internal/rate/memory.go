package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// MemoryLimiter mantiene un token bucket por key. Para una sola instancia;
// con varias réplicas usar RedisLimiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   xrate.Limit
	burst   int
	maxIdle time.Duration
}

type bucket struct {
	lim      *xrate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter permite max eventos por window, con burst = max.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max < 1 {
		max = 1
	}
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		limit:   xrate.Limit(float64(max) / window.Seconds()),
		burst:   max,
		maxIdle: 10 * window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: xrate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	now := time.Now()
	b.lastSeen = now
	// Barrido oportunista de buckets ociosos; mantiene el mapa acotado
	// sin necesidad de una goroutine de limpieza.
	if len(l.buckets) > 1024 {
		for k, v := range l.buckets {
			if now.Sub(v.lastSeen) > l.maxIdle {
				delete(l.buckets, k)
			}
		}
	}
	l.mu.Unlock()

	if b.lim.Allow() {
		return Result{Allowed: true, Remaining: int64(b.lim.Tokens())}, nil
	}
	// Tiempo aproximado hasta el próximo token.
	retry := time.Duration(float64(time.Second) / float64(l.limit))
	return Result{Allowed: false, RetryAfter: retry}, nil
}
