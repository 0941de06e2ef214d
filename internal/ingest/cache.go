package ingest

import (
	"context"
	"sync"

	"tixcli/internal/warehouse"
)

// IDCache memoizes the warehouse's existing snapshot IDs per fiscal
// year so append-mode runs over many documents hit the warehouse once
// per year instead of once per batch.
type IDCache struct {
	warehouse warehouse.Warehouse

	mutex  sync.Mutex
	byYear map[string]map[string]struct{}
	hits   int64
	misses int64
}

// NewIDCache creates a cache over the given warehouse.
func NewIDCache(w warehouse.Warehouse) *IDCache {
	return &IDCache{
		warehouse: w,
		byYear:    make(map[string]map[string]struct{}),
	}
}

// Existing returns the known snapshot IDs for one fiscal year, loading
// from the warehouse on first use.
func (c *IDCache) Existing(ctx context.Context, fiscalYear string) (map[string]struct{}, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ids, ok := c.byYear[fiscalYear]; ok {
		c.hits++
		return ids, nil
	}
	c.misses++

	ids, err := c.warehouse.ExistingSnapshotIDs(ctx, []string{fiscalYear})
	if err != nil {
		return nil, err
	}
	c.byYear[fiscalYear] = ids
	return ids, nil
}

// Add records freshly inserted IDs so later batches in the same run see
// them without another warehouse round trip.
func (c *IDCache) Add(fiscalYear string, ids ...string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	set, ok := c.byYear[fiscalYear]
	if !ok {
		return
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

// Invalidate drops one fiscal year from the cache.
func (c *IDCache) Invalidate(fiscalYear string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.byYear, fiscalYear)
}

// InvalidateAll drops every cached year. Called after a clear-mode
// delete, which changes the warehouse under the cache.
func (c *IDCache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.byYear = make(map[string]map[string]struct{})
}

// Stats returns cache hit and miss counts.
func (c *IDCache) Stats() (hits, misses int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.hits, c.misses
}
