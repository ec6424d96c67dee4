package safety

import (
	"sync"
	"time"
)

// tokenBucket is a classic refill-at-a-constant-rate limiter (spec
// §4.3: "per-tool token-bucket rate limits with documented refill
// rates and capacities"). Grounded on the refill/limit-rule shape of
// the teacher's pkg/ratelimit, simplified from its multi-window,
// multi-scope design down to the single-window bucket the spec calls
// for.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(capacity int, refillPerSec float64) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillPerSec,
		lastRefill: time.Now(),
	}
}

// Allow consumes one token if available, refilling first based on
// elapsed time.
func (b *tokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// rateLimiter owns one tokenBucket per tool name, created lazily.
type rateLimiter struct {
	mu           sync.Mutex
	buckets      map[string]*tokenBucket
	capacity     int
	refillPerSec float64
}

func newRateLimiter(capacity int, refillPerSec float64) *rateLimiter {
	return &rateLimiter{
		buckets:      make(map[string]*tokenBucket),
		capacity:     capacity,
		refillPerSec: refillPerSec,
	}
}

func (rl *rateLimiter) allow(toolName string) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[toolName]
	if !ok {
		b = newTokenBucket(rl.capacity, rl.refillPerSec)
		rl.buckets[toolName] = b
	}
	rl.mu.Unlock()
	return b.Allow()
}
