package display

// AssetKey identifies one scaled image asset.
type AssetKey struct {
	Path    string
	W, H    int
	Quality float64
}

// Cache is an unbounded memo of loaded resources. The set of assets is
// small and fixed per run, so nothing is evicted. A failed load is
// replaced by fallback and remembered. Cache is owned by the render
// thread and is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	items    map[K]V
	load     func(K) (V, error)
	fallback func(K, error) V
	misses   int
}

func NewCache[K comparable, V any](load func(K) (V, error), fallback func(K, error) V) *Cache[K, V] {
	return &Cache[K, V]{
		items:    make(map[K]V),
		load:     load,
		fallback: fallback,
	}
}

// Get returns the cached value, loading it on first use.
func (c *Cache[K, V]) Get(key K) V {
	if v, ok := c.items[key]; ok {
		return v
	}
	c.misses++
	v, err := c.load(key)
	if err != nil {
		v = c.fallback(key, err)
	}
	c.items[key] = v
	return v
}

func (c *Cache[K, V]) Len() int {
	return len(c.items)
}

// Loads returns how many times the loader has run.
func (c *Cache[K, V]) Loads() int {
	return c.misses
}

// Reset drops every entry, e.g. after a resize.
func (c *Cache[K, V]) Reset() {
	clear(c.items)
}
