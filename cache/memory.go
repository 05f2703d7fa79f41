package cache

import "sync"

// InMemoryCache is an unbounded, thread-safe phrase cache.
// Entries are never evicted; the cache lives as long as its owner.
type InMemoryCache struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewInMemoryCache creates an empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]string),
	}
}

// Lookup returns the translation stored for phrase.
func (c *InMemoryCache) Lookup(phrase string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	translation, ok := c.entries[phrase]
	return translation, ok
}

// Insert stores translation for phrase. It never fails.
func (c *InMemoryCache) Insert(phrase, translation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[phrase] = translation
	return nil
}

// Len returns the number of cached phrases.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a copy of all cached translations.
func (c *InMemoryCache) Entries() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]string, len(c.entries))
	for phrase, translation := range c.entries {
		result[phrase] = translation
	}
	return result
}

// Verify InMemoryCache implements PhraseCache
var _ PhraseCache = (*InMemoryCache)(nil)
