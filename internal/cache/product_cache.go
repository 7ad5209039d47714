package cache

import (
	"sync"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"
)

// Clock lets tests control time; production code passes time.Now.
type Clock func() time.Time

// ProductCache holds the public product listing for a bounded TTL.
// Invalidation is explicit: every admin mutation of the catalog calls
// Invalidate so shoppers never see a stale listing for longer than the TTL.
type ProductCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     Clock
	entries map[string]entry
}

type entry struct {
	products []product.Product
	storedAt time.Time
}

func NewProductCache(ttl time.Duration, now Clock) *ProductCache {
	if now == nil {
		now = time.Now
	}
	return &ProductCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached listing for a key, or false when absent or expired.
func (c *ProductCache) Get(key string) ([]product.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		return nil, false
	}
	return e.products, true
}

// Set stores a listing under a key.
func (c *ProductCache) Set(key string, products []product.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{products: products, storedAt: c.now()}
}

// Invalidate drops every cached listing.
func (c *ProductCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
