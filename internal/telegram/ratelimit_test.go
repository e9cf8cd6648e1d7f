package telegram

import (
	"testing"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{
		Enabled:           true,
		MessagesPerMinute: 60,
		BurstSize:         3,
	})

	for i := 0; i < 3; i++ {
		if !limiter.Allow("chat-1") {
			t.Fatalf("message %d within burst was rejected", i+1)
		}
	}
	if limiter.Allow("chat-1") {
		t.Error("message over burst was allowed")
	}
}

func TestRateLimiterChatsAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{
		Enabled:           true,
		MessagesPerMinute: 60,
		BurstSize:         1,
	})

	if !limiter.Allow("chat-1") {
		t.Fatal("first message for chat-1 rejected")
	}
	if !limiter.Allow("chat-2") {
		t.Error("chat-2 was throttled by chat-1's traffic")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{Enabled: false})

	for i := 0; i < 100; i++ {
		if !limiter.Allow("chat-1") {
			t.Fatal("disabled limiter rejected a message")
		}
	}
}

func TestRateLimiterNilConfigUsesDefaults(t *testing.T) {
	limiter := NewRateLimiter(nil)
	if !limiter.Allow("chat-1") {
		t.Error("default limiter rejected the first message")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(DefaultRateLimitConfig())
	limiter.Allow("chat-1")

	limiter.Cleanup(0)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.buckets) != 0 {
		t.Errorf("cleanup left %d buckets", len(limiter.buckets))
	}
}
