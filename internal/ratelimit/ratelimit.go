// Package ratelimit hands out one token bucket per key. Allow guards inbound
// requests; Wait paces outbound calls.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an unused key keeps its bucket.
const DefaultIdleTTL = 10 * time.Minute

type bucket struct {
	*rate.Limiter
	used time.Time
}

// KeyedRateLimiter keeps a bucket per key and forgets keys idle for longer
// than its TTL. Call Stop to end the sweeper goroutine.
type KeyedRateLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
	swept    chan struct{}
}

// New allows rps events per second per key, with the given burst.
func New(rps float64, burst int) *KeyedRateLimiter {
	return NewWithTTL(rps, burst, DefaultIdleTTL)
}

// PerMinute allows n events per minute per key. The burst is a sixth of n,
// at least one.
func PerMinute(n int) *KeyedRateLimiter {
	return New(float64(n)/60, max(1, n/6))
}

// NewWithTTL is New with an explicit idle TTL.
func NewWithTTL(rps float64, burst int, ttl time.Duration) *KeyedRateLimiter {
	l := &KeyedRateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
		swept:   make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow takes a token for key if one is available.
func (l *KeyedRateLimiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Wait blocks until key has a token or ctx is done.
func (l *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

// Len returns the number of tracked keys.
func (l *KeyedRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the sweeper and waits for it. Safe to call more than once.
func (l *KeyedRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.swept
}

func (l *KeyedRateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		b = &bucket{Limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.used = l.now()
	return b.Limiter
}

func (l *KeyedRateLimiter) sweep() {
	defer close(l.swept)

	tick := time.NewTicker(max(l.ttl/2, time.Second))
	defer tick.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-tick.C:
			l.evictIdle()
		}
	}
}

func (l *KeyedRateLimiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.ttl)
	for key, b := range l.buckets {
		if b.used.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
