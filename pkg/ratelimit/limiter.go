package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time     // Last time the bucket was refilled
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill > 0 {
			time.Sleep(timeUntilRefill)
		} else {
			// Small sleep to prevent busy waiting
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill adds tokens based on elapsed time
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	if elapsed >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// FixedInterval enforces a minimum gap between consecutive calls with a
// blocking sleep. It backs the inter-classification delay that keeps the
// pipeline inside the language model provider's per-minute quota.
type FixedInterval struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex

	// sleep is replaceable in tests
	sleep func(time.Duration)
}

// NewFixedInterval creates a limiter that spaces calls by interval.
func NewFixedInterval(interval time.Duration) *FixedInterval {
	return &FixedInterval{
		interval: interval,
		sleep:    time.Sleep,
	}
}

// Allow reports whether the interval since the previous call has elapsed,
// consuming the slot when it has.
func (f *FixedInterval) Allow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if f.last.IsZero() || now.Sub(f.last) >= f.interval {
		f.last = now
		return true
	}
	return false
}

// Wait blocks until the full interval since the previous call has elapsed.
// The first call never blocks.
func (f *FixedInterval) Wait() {
	f.mu.Lock()
	var wait time.Duration
	now := time.Now()
	if !f.last.IsZero() {
		if elapsed := now.Sub(f.last); elapsed < f.interval {
			wait = f.interval - elapsed
		}
	}
	f.last = now.Add(wait)
	f.mu.Unlock()

	if wait > 0 {
		f.sleep(wait)
	}
}

// Reset forgets the previous call so the next Wait returns immediately.
func (f *FixedInterval) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = time.Time{}
}
