package tenancy

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultCacheMaxEntries bounds the number of live entries across all
	// tenants.
	DefaultCacheMaxEntries = 1000
	// DefaultCacheTTL applies when Set is called with a non-positive TTL.
	DefaultCacheTTL = 5 * time.Minute
)

// cacheEntry is one stored query result. accessCount is bumped on every
// successful Get and drives the eviction order.
type cacheEntry struct {
	data        any
	createdAt   time.Time
	ttl         time.Duration
	tenantID    string
	accessCount int64
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// TenantAwareCache is a bounded in-memory cache of tenant-scoped query
// results. Every physical key is prefixed with the owning tenant's ID, so two
// tenants caching under the same logical key can never observe each other's
// payloads.
//
// Eviction is frequency-based: when the global cap is exceeded the sweep
// first drops everything past its TTL, then the least-accessed entries. This
// reproduces the dashboard's historical behaviour and is deliberately not a
// recency LRU.
//
// The zero value is not usable; construct with NewTenantAwareCache. All
// methods are safe for concurrent use and never perform I/O.
type TenantAwareCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int
	defaultTTL time.Duration

	now func() time.Time // injectable for tests
}

// CacheOption tweaks cache construction.
type CacheOption func(*TenantAwareCache)

// WithMaxEntries overrides the global entry cap.
func WithMaxEntries(n int) CacheOption {
	return func(c *TenantAwareCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithDefaultTTL overrides the TTL applied when Set receives none.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *TenantAwareCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// NewTenantAwareCache builds an empty cache with the default cap and TTL.
func NewTenantAwareCache(opts ...CacheOption) *TenantAwareCache {
	c := &TenantAwareCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: DefaultCacheMaxEntries,
		defaultTTL: DefaultCacheTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func physicalKey(tenantID, key string) string {
	return tenantID + ":" + key
}

// Set stores data under the tenant's namespace. A non-positive ttl selects
// the default. When the insert pushes the cache over its cap, the eviction
// sweep runs synchronously before Set returns, so the cap holds at every
// observable moment.
func (c *TenantAwareCache) Set(key string, data any, tenantID string, ttl time.Duration) {
	if tenantID == "" || key == "" {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[physicalKey(tenantID, key)] = &cacheEntry{
		data:      data,
		createdAt: c.now(),
		ttl:       ttl,
		tenantID:  tenantID,
	}
	if len(c.entries) > c.maxEntries {
		c.sweepLocked()
	}
}

// Get returns the payload cached under the tenant's namespace, or false on a
// miss. Entries past their TTL are evicted on sight and reported as misses
// even if no sweep has run yet.
func (c *TenantAwareCache) Get(key, tenantID string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pk := physicalKey(tenantID, key)
	entry, ok := c.entries[pk]
	if !ok {
		return nil, false
	}
	if entry.expired(c.now()) {
		delete(c.entries, pk)
		return nil, false
	}
	entry.accessCount++
	return entry.data, true
}

// InvalidateTenant removes every entry belonging to the tenant and returns
// how many were dropped. Write paths call this so stale reads cannot survive
// a mutation.
func (c *TenantAwareCache) InvalidateTenant(tenantID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	prefix := tenantID + ":"
	for pk, entry := range c.entries {
		if entry.tenantID == tenantID && strings.HasPrefix(pk, prefix) {
			delete(c.entries, pk)
			removed++
		}
	}
	return removed
}

// InvalidatePattern removes the tenant's entries whose logical key matches a
// glob pattern ('*' = any sequence). The match is applied after stripping the
// tenant prefix and never crosses tenant boundaries.
func (c *TenantAwareCache) InvalidatePattern(pattern, tenantID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	prefix := tenantID + ":"
	for pk, entry := range c.entries {
		if entry.tenantID != tenantID {
			continue
		}
		if globMatch(pattern, strings.TrimPrefix(pk, prefix)) {
			delete(c.entries, pk)
			removed++
		}
	}
	return removed
}

// sweepLocked enforces the global cap: expired entries go first (across all
// tenants), then remaining entries in ascending access-count order until the
// cache is back under its maximum. Callers must hold mu.
func (c *TenantAwareCache) sweepLocked() {
	now := c.now()
	for pk, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, pk)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyed struct {
		pk        string
		count     int64
		createdAt time.Time
	}
	ordered := make([]keyed, 0, len(c.entries))
	for pk, entry := range c.entries {
		ordered = append(ordered, keyed{pk: pk, count: entry.accessCount, createdAt: entry.createdAt})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count < ordered[j].count
		}
		// Oldest first among equally-accessed entries.
		return ordered[i].createdAt.Before(ordered[j].createdAt)
	})

	for _, k := range ordered {
		if len(c.entries) <= c.maxEntries {
			break
		}
		delete(c.entries, k.pk)
	}
}

// CacheStats is a diagnostic snapshot: entry counts only, never payloads.
type CacheStats struct {
	TotalEntries int            `json:"total_entries"`
	ByTenant     map[string]int `json:"by_tenant"`
}

// Stats reports live entry counts globally and per tenant.
func (c *TenantAwareCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		TotalEntries: len(c.entries),
		ByTenant:     make(map[string]int),
	}
	for _, entry := range c.entries {
		stats.ByTenant[entry.tenantID]++
	}
	return stats
}
