// Package session holds the short-lived addressable result list shown to each
// conversation, so a user can complete "item 3" from the last listing.
//
// The cache is advisory and volatile: losing an entry only degrades "done N"
// to a "send tasks first" reply. It must never be treated as a source of
// truth for task identity.
package session

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a cached result list stays addressable.
const DefaultTTL = 15 * time.Minute

// Cache maps a conversation id to the ordered item ids of the last listing.
// Implementations are safe for concurrent use, keyed per conversation with
// last-write-wins semantics.
type Cache interface {
	// Put stores or replaces the entry for a conversation.
	Put(ctx context.Context, conversationID string, itemIDs []string) error

	// Get returns the stored list if a live entry exists. Expired entries
	// are treated as absent and evicted on read.
	Get(ctx context.Context, conversationID string) ([]string, bool, error)
}

// entry is one conversation's cached listing.
type entry struct {
	itemIDs   []string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache for single-instance deployments.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache. A non-positive ttl falls back
// to DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores the item ids for a conversation, replacing any previous entry.
func (c *MemoryCache) Put(_ context.Context, conversationID string, itemIDs []string) error {
	ids := make([]string, len(itemIDs))
	copy(ids, itemIDs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[conversationID] = entry{
		itemIDs:   ids,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Get returns the cached ids for a conversation. An entry past its expiry is
// evicted and reported as absent.
func (c *MemoryCache) Get(_ context.Context, conversationID string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[conversationID]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, conversationID)
		return nil, false, nil
	}

	ids := make([]string, len(e.itemIDs))
	copy(ids, e.itemIDs)
	return ids, true, nil
}

// StartSweep launches a background loop that evicts expired entries for
// memory hygiene. Correctness never depends on it; Get already treats
// expired entries as absent. The loop stops when ctx is cancelled.
func (c *MemoryCache) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// sweep removes all expired entries.
func (c *MemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}
