package analysis

import "sync"

// Cache memoizes per-file analysis results, keyed by file path. It is
// shared mutable state across analysis workers, so every map access runs
// under the mutex; the analysis computation itself never does. Entries
// live for the process lifetime unless explicitly invalidated.
//
// File identity is the path string, matching how the rest of the system
// addresses tracks. Renaming a file changes its identity and will cause a
// fresh analysis; the persistent store compensates by keying on
// modification time as well.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Descriptor
}

// NewCache creates an empty analysis cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Descriptor)}
}

// Get returns the cached descriptor for a path, if present
func (c *Cache) Get(path string) (Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[path]
	return d, ok
}

// Put stores a descriptor for a path, replacing any previous entry
func (c *Cache) Put(path string, d Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = d
}

// Invalidate removes the entry for a path, forcing recomputation on the
// next analysis request
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
