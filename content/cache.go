package content

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Store is an optional second cache tier shared across node restarts.
type Store interface {
	Get(ctx context.Context, cid string) ([]byte, bool, error)
	Set(ctx context.Context, cid string, data []byte) error
}

// Cache holds resolved content by CID for the life of the process.
// Content addressed by a CID never changes, so entries are never evicted.
type Cache struct {
	mu    sync.RWMutex
	items map[string][]byte
	store Store
	log   *zap.Logger
}

// NewCache creates a cache; store may be nil.
func NewCache(store Store, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{items: make(map[string][]byte), store: store, log: log}
}

// Get looks in memory first, then the store, back-filling memory on a store hit.
func (c *Cache) Get(ctx context.Context, cid string) ([]byte, bool) {
	c.mu.RLock()
	data, ok := c.items[cid]
	c.mu.RUnlock()
	if ok {
		return data, true
	}
	if c.store == nil {
		return nil, false
	}
	data, ok, err := c.store.Get(ctx, cid)
	if err != nil {
		c.log.Warn("content store read failed", zap.String("cid", cid), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	c.items[cid] = data
	c.mu.Unlock()
	return data, true
}

// Put stores data under cid in both tiers.
func (c *Cache) Put(ctx context.Context, cid string, data []byte) {
	c.mu.Lock()
	c.items[cid] = data
	c.mu.Unlock()
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, cid, data); err != nil {
		c.log.Warn("content store write failed", zap.String("cid", cid), zap.Error(err))
	}
}

// Len is the number of entries held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
