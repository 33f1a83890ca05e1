package geo

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// runCache memoizes provider lookups for the duration of one run. Failed
// lookups are cached as the zero value. Concurrent misses for the same key
// share a single fetch.
type runCache[V any] struct {
	mu     sync.Mutex
	values map[string]V
	group  singleflight.Group
}

func newRunCache[V any]() *runCache[V] {
	return &runCache[V]{values: make(map[string]V)}
}

func (c *runCache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *runCache[V]) get(key string, fetch func() V) V {
	if v, ok := c.lookup(key); ok {
		return v
	}
	out, _, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v := fetch()
		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()
		return v, nil
	})
	return out.(V)
}

func (c *runCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}
