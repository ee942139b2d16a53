package analysis

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/franz/clipbox/internal/store"
)

// Cache holds aggregate results for a short time. Keys carry the store's
// write generation, so any committed write makes earlier entries unreachable.
type Cache struct {
	items      *cache.Cache
	group      singleflight.Group
	generation func() uint64
}

// NewCache creates a cache whose entries live for ttl. A ttl of zero or less
// disables caching.
func NewCache(ttl time.Duration, generation func() uint64) *Cache {
	if ttl <= 0 {
		return nil
	}
	return &Cache{
		items:      cache.New(ttl, 2*ttl),
		generation: generation,
	}
}

// cached returns the value stored under key or loads it. Concurrent callers
// for the same key share one load.
func cached[T any](c *Cache, key string, load func() (T, error)) (T, error) {
	if c == nil {
		return load()
	}

	key = fmt.Sprintf("%d|%s", c.generation(), key)
	if v, ok := c.items.Get(key); ok {
		return v.(T), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := load()
		if err != nil {
			return nil, err
		}
		c.items.SetDefault(key, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func windowKey(w store.Window) string {
	var start, end int64
	if !w.Start.IsZero() {
		start = w.Start.UnixMilli()
	}
	if !w.End.IsZero() {
		end = w.End.UnixMilli()
	}
	return fmt.Sprintf("%d-%d", start, end)
}
