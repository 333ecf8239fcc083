package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketBurstThenDeny(t *testing.T) {
	// refill slowly enough that the loop below cannot earn a token back
	tb := NewTokenBucket(0.001, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "request %d within burst should pass", i)
	}
	assert.False(t, tb.Allow())
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(100, 1)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// 100 tokens/s refills a single token in 10ms
	time.Sleep(30 * time.Millisecond)
	assert.True(t, tb.Allow())
}

func TestTokenBucketCapsAtBurst(t *testing.T) {
	tb := NewTokenBucket(1000, 2)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketDefaults(t *testing.T) {
	tb := NewTokenBucket(0, 0)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}
