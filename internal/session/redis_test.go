package session

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := NewRedisCache(&RedisConfig{Addr: mr.Addr()}, ttl)
	t.Cleanup(func() { _ = cache.Close() })

	return cache, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache, _ := newTestRedisCache(t, DefaultTTL)
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	if err := cache.Put(ctx, "chat-1", ids); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := cache.Get(ctx, "chat-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected entry to be present")
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("Get returned %v, want %v", got, ids)
	}
}

func TestRedisCacheMiss(t *testing.T) {
	cache, _ := newTestRedisCache(t, DefaultTTL)

	_, ok, err := cache.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected absent entry for unknown conversation")
	}
}

func TestRedisCacheLastWriteWins(t *testing.T) {
	cache, _ := newTestRedisCache(t, DefaultTTL)
	ctx := context.Background()

	_ = cache.Put(ctx, "chat-1", []string{"old"})
	_ = cache.Put(ctx, "chat-1", []string{"new-1", "new-2"})

	got, ok, _ := cache.Get(ctx, "chat-1")
	if !ok {
		t.Fatal("expected entry to be present")
	}
	if !reflect.DeepEqual(got, []string{"new-1", "new-2"}) {
		t.Errorf("Get returned %v, want the most recent list", got)
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	cache, mr := newTestRedisCache(t, 15*time.Minute)
	ctx := context.Background()

	_ = cache.Put(ctx, "chat-1", []string{"a"})

	mr.FastForward(16 * time.Minute)

	if _, ok, _ := cache.Get(ctx, "chat-1"); ok {
		t.Fatal("entry should be absent past its TTL")
	}

	// No resurrection later either
	mr.FastForward(24 * time.Hour)
	if _, ok, _ := cache.Get(ctx, "chat-1"); ok {
		t.Fatal("expired entry must not resurrect")
	}
}
