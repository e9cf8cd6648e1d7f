package telegram

import (
	"sync"
	"time"
)

// RateLimitConfig holds per-chat rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	MessagesPerMinute int  `yaml:"messages_per_minute"` // Max messages per minute (default: 20)
	BurstSize         int  `yaml:"burst_size"`          // Burst allowance (default: 5)
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:           true,
		MessagesPerMinute: 20,
		BurstSize:         5,
	}
}

// RateLimiter implements per-chat token bucket rate limiting
type RateLimiter struct {
	config  *RateLimitConfig
	buckets map[string]*tokenBucket
	mu      sync.Mutex
}

// tokenBucket tracks the message budget for a single chat
type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
	rate       float64 // tokens per second
	maxBurst   int
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*tokenBucket),
	}
}

// Allow reports whether a message from the given chat may be processed.
func (r *RateLimiter) Allow(chatID string) bool {
	if !r.config.Enabled {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.getOrCreateBucket(chatID)
	bucket.refill()

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true
	}
	return false
}

// getOrCreateBucket returns the token bucket for a chat, creating if needed
func (r *RateLimiter) getOrCreateBucket(chatID string) *tokenBucket {
	bucket, exists := r.buckets[chatID]
	if !exists {
		maxBurst := r.config.MessagesPerMinute
		if r.config.BurstSize > 0 && r.config.BurstSize < maxBurst {
			maxBurst = r.config.BurstSize
		}

		bucket = &tokenBucket{
			tokens:     float64(maxBurst), // Start with burst capacity
			lastRefill: time.Now(),
			rate:       float64(r.config.MessagesPerMinute) / 60.0,
			maxBurst:   maxBurst,
		}
		r.buckets[chatID] = bucket
	}
	return bucket
}

// refill adds tokens based on elapsed time
func (b *tokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.rate
	if b.tokens > float64(b.maxBurst) {
		b.tokens = float64(b.maxBurst)
	}
}

// Cleanup removes buckets that haven't been used recently.
// Call periodically to prevent unbounded growth.
func (r *RateLimiter) Cleanup(maxAge time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for chatID, bucket := range r.buckets {
		if bucket.lastRefill.Before(cutoff) {
			delete(r.buckets, chatID)
		}
	}
}
