package collect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
)

// EmptySearchCache remembers which query/location pairs came back empty so
// the next runs can skip them until the TTL expires. Persisted as a flat
// JSON map of cache key to unix timestamp.
type EmptySearchCache struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	entries map[string]int64
}

func cacheKey(source, query, location string) string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%s", source, query, location))
}

// NewEmptySearchCache loads the cache file, pruning entries older than ttl.
// A missing or corrupt file yields an empty cache.
func NewEmptySearchCache(path string, ttl time.Duration) *EmptySearchCache {
	c := &EmptySearchCache{
		path:    path,
		ttl:     ttl,
		entries: map[string]int64{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("empty-search cache unreadable, starting fresh")
		c.entries = map[string]int64{}
		return c
	}

	cutoff := time.Now().Add(-ttl).Unix()
	for key, stamp := range c.entries {
		if stamp < cutoff {
			delete(c.entries, key)
		}
	}
	return c
}

// RecentlyEmpty reports whether the key was marked empty within the TTL.
func (c *EmptySearchCache) RecentlyEmpty(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	stamp, ok := c.entries[key]
	if !ok {
		return false
	}
	return time.Since(time.Unix(stamp, 0)) < c.ttl
}

// MarkEmpty records the key with the current timestamp.
func (c *EmptySearchCache) MarkEmpty(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = time.Now().Unix()
}

// Save writes the cache back to disk. Failures are logged, not fatal; the
// cache is an optimization.
func (c *EmptySearchCache) Save() {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		log.Warn().Str("path", c.path).Err(err).Msg("cannot create cache directory")
		return
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		log.Warn().Str("path", c.path).Err(err).Msg("cannot write empty-search cache")
	}
}
