// Package cache stores rendered HTML keyed by collection, source path and
// layout, with staleness tracked against the source file's mtime.
package cache

import (
	"sync"
	"time"
)

// Key identifies one rendered page. The same document rendered under two
// layouts occupies two entries.
type Key struct {
	Collection string
	Path       string
	Layout     string
}

// Entry is a cached render.
type Entry struct {
	HTML       string
	SourceMod  time.Time
	RenderedAt time.Time
}

// IsStale reports whether the entry predates the given source mtime.
func (e *Entry) IsStale(sourceMod time.Time) bool {
	return !e.SourceMod.Equal(sourceMod)
}

// Cache defines the interface for render caching.
type Cache interface {
	// Get retrieves cached HTML. An entry whose recorded source mtime
	// differs from sourceMod is a miss.
	Get(key Key, sourceMod time.Time) (string, bool)

	// Store saves rendered HTML for the key.
	Store(key Key, html string, sourceMod time.Time) error

	// Invalidate removes entries. Empty path matches every path in the
	// collection; empty collection and path clears everything.
	Invalidate(collection, path string) error

	// Close releases cache resources.
	Close() error
}

// MemoryCache is an in-memory render cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key]*Entry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[Key]*Entry)}
}

// Get retrieves cached HTML, treating an mtime mismatch as a miss.
func (c *MemoryCache) Get(key Key, sourceMod time.Time) (string, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || entry.IsStale(sourceMod) {
		return "", false
	}
	return entry.HTML, true
}

// Store saves rendered HTML for the key.
func (c *MemoryCache) Store(key Key, html string, sourceMod time.Time) error {
	entry := &Entry{
		HTML:       html,
		SourceMod:  sourceMod,
		RenderedAt: time.Now(),
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// Invalidate removes matching entries; empty selectors widen the match.
func (c *MemoryCache) Invalidate(collection, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if collection == "" && path == "" {
		c.entries = make(map[Key]*Entry)
		return nil
	}
	for key := range c.entries {
		if collection != "" && key.Collection != collection {
			continue
		}
		if path != "" && key.Path != path {
			continue
		}
		delete(c.entries, key)
	}
	return nil
}

// Close is a no-op for the in-memory cache.
func (c *MemoryCache) Close() error { return nil }

// Len returns the number of entries in the cache (for testing)
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
