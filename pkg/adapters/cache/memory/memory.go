package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
)

type entry struct {
	order     domain.ActiveOrder
	expiresAt time.Time
}

// ActiveOrderCache implements ports.ActiveOrderCache in memory with lazy TTL
// eviction. This is for testing and single-node development only.
type ActiveOrderCache struct {
	entries map[string]entry
	ttl     time.Duration
	mu      sync.RWMutex
	now     func() time.Time
}

// NewActiveOrderCache creates a new in-memory active order cache
func NewActiveOrderCache(ttl time.Duration) *ActiveOrderCache {
	return &ActiveOrderCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Set writes the projection and resets its TTL
func (c *ActiveOrderCache) Set(ctx context.Context, order *domain.ActiveOrder) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[order.ID] = entry{
		order:     *order,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Get returns the projection or nil when absent or expired
func (c *ActiveOrderCache) Get(ctx context.Context, orderID string) (*domain.ActiveOrder, error) {
	c.mu.RLock()
	e, ok := c.entries[orderID]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a Set may have refreshed it
		if cur, ok := c.entries[orderID]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.entries, orderID)
		}
		c.mu.Unlock()
		return nil, nil
	}

	order := e.order
	return &order, nil
}

// Delete drops the projection
func (c *ActiveOrderCache) Delete(ctx context.Context, orderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, orderID)
	return nil
}

// Len returns the number of stored entries, expired or not
func (c *ActiveOrderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
