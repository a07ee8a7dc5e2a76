package redis

import (
	"context"
	"errors"

	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
)

// ══════════════════════════════════════════════════════════════════════════════
// OCCUPANCY CACHE
// ══════════════════════════════════════════════════════════════════════════════

// OccupancyCache implements subject.OccupancyCache on top of Redis.
// Snapshots are invalidated by the group change event handler, so a cached
// value is at most one missed event stale before the TTL expires it.
type OccupancyCache struct {
	cache *Cache
}

// NewOccupancyCache creates a new OccupancyCache.
func NewOccupancyCache(cache *Cache) *OccupancyCache {
	return &OccupancyCache{cache: cache}
}

func occupancyKey(groupID string) string {
	return PrefixOccupancy + groupID
}

// Get returns the cached occupancy snapshot of the group.
func (c *OccupancyCache) Get(ctx context.Context, groupID string) (subject.Occupancy, bool, error) {
	var occ subject.Occupancy

	err := c.cache.Get(ctx, occupancyKey(groupID), &occ)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return subject.Occupancy{}, false, nil
		}
		return subject.Occupancy{}, false, err
	}

	return occ, true, nil
}

// Set stores the occupancy snapshot of the group.
func (c *OccupancyCache) Set(ctx context.Context, occ subject.Occupancy) error {
	return c.cache.Set(ctx, occupancyKey(occ.GroupID), occ, TTLOccupancy)
}

// Invalidate removes the snapshots of the given groups.
func (c *OccupancyCache) Invalidate(ctx context.Context, groupIDs ...string) error {
	keys := make([]string, 0, len(groupIDs))
	for _, id := range groupIDs {
		keys = append(keys, occupancyKey(id))
	}
	return c.cache.Delete(ctx, keys...)
}
