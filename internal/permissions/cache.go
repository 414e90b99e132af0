package permissions

import (
	"log/slog"
	"sync"

	"github.com/valinor-ai/navgate/internal/pathmap"
	"github.com/valinor-ai/navgate/internal/platform/metrics"
)

// Cache memoizes the maps built from the current path map. Get builds at
// most once per invalidation epoch and every caller of that epoch observes
// the same *Maps.
type Cache struct {
	mu    sync.Mutex
	paths *pathmap.Map
	maps  *Maps
	epoch uint64
}

func NewCache(paths *pathmap.Map) *Cache {
	return &Cache{paths: paths}
}

// Get returns the cached maps, building them on first use.
func (c *Cache) Get() *Maps {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked()
}

// Snapshot returns the source path map together with the maps built from
// it, so a concurrent SetPaths cannot pair one with the other's successor.
func (c *Cache) Snapshot() (*pathmap.Map, *Maps) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paths, c.getLocked()
}

func (c *Cache) getLocked() *Maps {
	if c.maps == nil {
		c.maps = Build(c.paths)
		metrics.RecordPermissionBuild()
		slog.Debug("permission maps built", "templates", c.paths.Len(), "roles", len(c.maps.RoleToPaths), "epoch", c.epoch)
	}
	return c.maps
}

// Build returns freshly built maps without touching the cache.
func (c *Cache) Build() *Maps {
	return Build(c.Paths())
}

// Invalidate drops the cached maps; the next Get rebuilds.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

func (c *Cache) invalidateLocked() {
	c.maps = nil
	c.epoch++
}

// Epoch counts invalidations since the cache was created.
func (c *Cache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Paths returns the path map the cache currently builds from.
func (c *Cache) Paths() *pathmap.Map {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paths
}

// SetPaths replaces the source path map and invalidates the cache.
func (c *Cache) SetPaths(paths *pathmap.Map) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = paths
	c.invalidateLocked()
}
