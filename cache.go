package rollgate

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const fallbackCacheKey = "flags"

// FlagCache is the local last-known-good snapshot used by the polling
// and streaming workers as a fallback source: whenever a fetch fails in
// transport, a cached snapshot replaces the flag store's contents. It wraps
// patrickmn/go-cache's TTL eviction to reproduce a fresh/stale/gone
// distinction from the configured TTL and StaleTTL: a snapshot younger
// than TTL is fresh, older than TTL but younger than StaleTTL is
// stale-but-usable, and older than StaleTTL is evicted entirely.
type FlagCache struct {
	enabled bool
	ttl     time.Duration
	fresh   *gocache.Cache
	stale   *gocache.Cache
}

// CacheResult reports what a fallback lookup found.
type CacheResult struct {
	Flags map[string]FlagValue
	Stale bool
	Found bool
}

// NewFlagCache builds a FlagCache from cfg. When cfg.Enabled is false,
// Get always reports a miss and Set is a no-op.
func NewFlagCache(cfg CacheConfig) *FlagCache {
	return &FlagCache{
		enabled: cfg.Enabled,
		ttl:     cfg.TTL,
		fresh:   gocache.New(cfg.TTL, cfg.TTL/2),
		stale:   gocache.New(cfg.StaleTTL, cfg.StaleTTL/2),
	}
}

// Set stores a snapshot, resetting both the fresh and stale windows.
func (c *FlagCache) Set(flags map[string]FlagValue) {
	if !c.enabled {
		return
	}
	snapshot := make(map[string]FlagValue, len(flags))
	for k, v := range flags {
		snapshot[k] = v
	}
	c.fresh.SetDefault(fallbackCacheKey, snapshot)
	c.stale.SetDefault(fallbackCacheKey, snapshot)
}

// Get returns the cached snapshot: fresh if within TTL, stale if past
// TTL but within StaleTTL, or not found.
func (c *FlagCache) Get() CacheResult {
	if !c.enabled {
		return CacheResult{}
	}
	if v, ok := c.fresh.Get(fallbackCacheKey); ok {
		return CacheResult{Flags: v.(map[string]FlagValue), Found: true}
	}
	if v, ok := c.stale.Get(fallbackCacheKey); ok {
		return CacheResult{Flags: v.(map[string]FlagValue), Stale: true, Found: true}
	}
	return CacheResult{}
}

// Clear removes any cached snapshot.
func (c *FlagCache) Clear() {
	c.fresh.Flush()
	c.stale.Flush()
}

// HasFresh reports whether a fresh (non-stale) snapshot is present.
func (c *FlagCache) HasFresh() bool {
	_, ok := c.fresh.Get(fallbackCacheKey)
	return ok
}

// HasAny reports whether any snapshot, fresh or stale, is present.
func (c *FlagCache) HasAny() bool {
	_, ok := c.stale.Get(fallbackCacheKey)
	return ok
}
