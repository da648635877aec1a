// Package cache memoizes pipeline results per key with bounded size, a
// per-entry TTL and at most one in-flight computation per key.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

type Options struct {
	TTL        time.Duration
	MaxEntries int
}

// Entry is a cached value and the time it was computed.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
}

type Cache[V any] struct {
	lru   *expirable.LRU[string, Entry[V]]
	group singleflight.Group
	now   func() time.Time
}

// New returns a cache. A zero TTL or zero MaxEntries disables storage; calls
// still coalesce while a computation is in flight.
func New[V any](opts Options) *Cache[V] {
	c := &Cache[V]{now: time.Now}
	if opts.TTL > 0 && opts.MaxEntries > 0 {
		c.lru = expirable.NewLRU[string, Entry[V]](opts.MaxEntries, nil, opts.TTL)
	}
	return c
}

// Enabled reports whether results are retained between calls.
func (c *Cache[V]) Enabled() bool { return c.lru != nil }

// Get returns a live entry for key.
func (c *Cache[V]) Get(key string) (Entry[V], bool) {
	if c.lru == nil {
		return Entry[V]{}, false
	}
	return c.lru.Get(key)
}

// GetOrCompute returns the cached entry for key or runs compute once for all
// concurrent callers of the same key. The computation runs detached from the
// caller's cancellation so an abandoned request does not fail the others.
// Errors are shared with waiters but never stored. hit is true only when the
// value came from storage.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (e Entry[V], hit bool, err error) {
	if e, ok := c.Get(key); ok {
		return e, true, nil
	}
	detached := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if e, ok := c.Get(key); ok {
			return e, nil
		}
		val, err := compute(detached)
		if err != nil {
			return nil, err
		}
		e := Entry[V]{Value: val, StoredAt: c.now()}
		if c.lru != nil {
			c.lru.Add(key, e)
		}
		return e, nil
	})
	if err != nil {
		return Entry[V]{}, false, err
	}
	return v.(Entry[V]), false, nil
}

func (c *Cache[V]) Invalidate(key string) {
	if c.lru != nil {
		c.lru.Remove(key)
	}
}

func (c *Cache[V]) Purge() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

func (c *Cache[V]) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
