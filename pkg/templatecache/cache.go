// Package templatecache is the runtime side of a tmplpack build. It holds
// named, process-wide caches mapping a template's path to its minified
// markup, and loads the json or yaml artifacts written by `tmplpack build`
// into them.
//
//	f, _ := os.Open("dist/templates.json")
//	a, err := templatecache.Load(f, templatecache.FormatJSON)
//	...
//	err = a.Register("")
//	html, ok := templatecache.Named("app").Get("main/a/view.html")
package templatecache

import (
	"fmt"
	"sync"
)

// Cache is an insertion-ordered key to markup store. It is safe for
// concurrent use.
type Cache struct {
	name    string
	entries map[string]string
	order   []string
	mutex   sync.RWMutex
}

// DuplicateKeyError is returned by Put when the key is already cached.
type DuplicateKeyError struct {
	Cache string
	Key   string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("template cache %q already contains %q", e.Cache, e.Key)
}

var (
	registry      = make(map[string]*Cache)
	registryMutex sync.Mutex
)

// New creates an unregistered cache.
func New(name string) *Cache {
	return &Cache{
		name:    name,
		entries: make(map[string]string),
	}
}

// Named returns the process-wide cache for name, creating it on first use.
func Named(name string) *Cache {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	c, ok := registry[name]
	if !ok {
		c = New(name)
		registry[name] = c
	}
	return c
}

// Drop removes the named cache from the registry.
func Drop(name string) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	delete(registry, name)
}

// Name returns the cache name.
func (c *Cache) Name() string {
	return c.name
}

// Put stores content under key. Existing keys are never overwritten.
func (c *Cache) Put(key, content string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.entries[key]; exists {
		return &DuplicateKeyError{Cache: c.name, Key: key}
	}
	c.entries[key] = content
	c.order = append(c.order, key)
	return nil
}

// PutAll stores every entry in order, or none of them when any key is
// already cached or repeats within entries.
func (c *Cache) PutAll(entries []Entry) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, exists := c.entries[e.Key]; exists {
			return &DuplicateKeyError{Cache: c.name, Key: e.Key}
		}
		if _, dup := seen[e.Key]; dup {
			return &DuplicateKeyError{Cache: c.name, Key: e.Key}
		}
		seen[e.Key] = struct{}{}
	}

	for _, e := range entries {
		c.entries[e.Key] = e.Content
		c.order = append(c.order, e.Key)
	}
	return nil
}

// Get returns the markup stored under the exact key.
func (c *Cache) Get(key string) (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	content, ok := c.entries[key]
	return content, ok
}

// Keys returns the keys in insertion order.
func (c *Cache) Keys() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.order)
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]string)
	c.order = nil
}
