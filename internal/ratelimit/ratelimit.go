// Package ratelimit provides a keyed token-bucket rate limiter with idle-key
// eviction. Each key (typically a client IP) gets an independent bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// evictAfter is how long a key may sit unused before its bucket is dropped.
// A dropped key simply starts over with a full burst on its next request.
const evictAfter = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a keyed rate limiter allowing rps requests per second with the
// given burst per key, and starts the idle-key eviction loop.
func New(rps float64, burst int) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}

	go krl.evictLoop()

	return krl
}

// Allow reports whether a request for the given key may proceed right now.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.bucketFor(key).Allow()
}

// Wait blocks until a request for the given key is allowed or ctx is canceled.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.bucketFor(key).Wait(ctx)
}

func (krl *KeyedRateLimiter) bucketFor(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	b, ok := krl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// Stop shuts down the eviction goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) evictLoop() {
	ticker := time.NewTicker(evictAfter / 2)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			krl.mu.Lock()
			for key, b := range krl.buckets {
				if now.Sub(b.lastSeen) > evictAfter {
					delete(krl.buckets, key)
				}
			}
			krl.mu.Unlock()
		case <-krl.done:
			return
		}
	}
}
