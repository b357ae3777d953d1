// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache holds snapshots that are shared between rounds but must be
// refreshed periodically, such as chain membership.
package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// TTLCache caches values per key for a fixed duration. Concurrent misses on
// the same key share a single fetch.
type TTLCache[K comparable, V any] struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	lock sync.RWMutex
	data map[K]entry[V]
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[K]entry[V]),
	}
}

// Get returns the cached value for key if it is younger than the TTL,
// otherwise it calls fetch and caches the result. Errors are not cached.
func (c *TTLCache[K, V]) Get(key K, fetch func(K) (V, error)) (V, error) {
	c.lock.RLock()
	e, ok := c.data[key]
	c.lock.RUnlock()
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		return e.value, nil
	}

	v, err, _ := c.group.Do(keyToString(key), func() (interface{}, error) {
		value, err := fetch(key)
		if err != nil {
			return nil, err
		}

		c.lock.Lock()
		c.data[key] = entry[V]{value: value, fetchedAt: c.now()}
		c.lock.Unlock()
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Invalidate drops key so the next Get fetches it again.
func (c *TTLCache[K, V]) Invalidate(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.data, key)
}

// keyToString is defined to allow for both fmt.Stringer and primitive string types.
func keyToString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
