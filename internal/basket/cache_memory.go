package basket

import (
	"context"
	"sync"
	"time"
)

// MemCache mirrors the Redis cache semantics for tests: fixed TTL refreshed
// on every Put, expired entries read as absent.
type MemCache struct {
	mu  sync.Mutex
	m   map[int]memEntry
	ttl time.Duration
	now func() time.Time
}

type memEntry struct {
	basket    Basket
	expiresAt time.Time
}

func NewMemCache(ttl time.Duration) *MemCache {
	return &MemCache{
		m:   map[int]memEntry{},
		ttl: ttl,
		now: time.Now,
	}
}

func (c *MemCache) Get(_ context.Context, userID int) (Basket, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[userID]
	if !ok {
		return Basket{}, false, nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.m, userID)
		return Basket{}, false, nil
	}

	// The Redis cache hands back a decoded copy; match that so callers
	// mutating the returned items cannot reach the stored value.
	b := e.basket
	b.Items = append([]Item(nil), e.basket.Items...)
	return b, true, nil
}

func (c *MemCache) Put(_ context.Context, userID int, b Basket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[userID] = memEntry{basket: b, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemCache) Delete(_ context.Context, userID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, userID)
	return nil
}

func (c *MemCache) Ping(context.Context) error { return nil }
