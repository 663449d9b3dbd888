package regex

import "sync"

// Cache compiles each distinct expression once and hands out the shared
// Regexp on every later request. It is safe for concurrent use.
type Cache struct {
	engine Engine

	mu      sync.Mutex
	entries map[string]Regexp
}

// NewCache creates a cache backed by engine.
func NewCache(engine Engine) *Cache {
	return &Cache{
		engine:  engine,
		entries: make(map[string]Regexp),
	}
}

// Engine returns the engine backing the cache.
func (c *Cache) Engine() Engine {
	return c.engine
}

// Compile returns the cached Regexp for expr, compiling it on first use.
// Failed compilations are not cached.
func (c *Cache) Compile(expr string) (Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if re, ok := c.entries[expr]; ok {
		return re, nil
	}
	re, err := c.engine.Compile(expr)
	if err != nil {
		return nil, err
	}
	c.entries[expr] = re
	return re, nil
}

// Len returns the number of compiled expressions held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
