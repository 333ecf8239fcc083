// Package ratelimit provides a token-bucket limiter used to bound the rate
// of pricing API requests.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// TokenBucket refills at a fixed rate up to a burst capacity
type TokenBucket struct {
	rate       float64
	burst      float64
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
	log        *logger.Logger
}

// NewTokenBucket creates a limiter allowing rate requests per second with
// the given burst capacity
func NewTokenBucket(rate float64, burst int) *TokenBucket {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:       rate,
		burst:      float64(burst),
		tokens:     float64(burst),
		lastUpdate: time.Now(),
		log:        logger.GetLogger("ratelimit"),
	}
}

// Allow reports whether one request may proceed now
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.tokens += now.Sub(tb.lastUpdate).Seconds() * tb.rate
	if tb.tokens > tb.burst {
		tb.tokens = tb.burst
	}
	tb.lastUpdate = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}
