// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package cache provides a small in-memory cache with TTL support. It holds
// lookup results such as cover-art URLs, never media content.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a thread-safe key/value store with per-entry expiration.
type Cache[V any] interface {
	// Get returns the value for key unless it is missing or expired.
	Get(key string) (V, bool)
	// Set stores value for ttl.
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Clear()
	Stats() Stats
	// Close stops background cleanup.
	Close()
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

type entry[V any] struct {
	value      V
	expiration time.Time
}

type memoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	now     func() time.Time

	hits, misses, sets, evictions atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMemory creates an in-memory cache. A positive cleanupInterval starts a
// janitor goroutine that drops expired entries; Close stops it.
func NewMemory[V any](cleanupInterval time.Duration) Cache[V] {
	c := &memoryCache[V]{
		entries: make(map[string]entry[V]),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		c.wg.Add(1)
		go c.janitor(cleanupInterval)
	}
	return c
}

func (c *memoryCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || c.now().After(e.expiration) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

func (c *memoryCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiration: c.now().Add(ttl)}
	c.mu.Unlock()
	c.sets.Add(1)
}

func (c *memoryCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

func (c *memoryCache[V]) Stats() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

// deleteExpired removes expired entries and returns how many were dropped.
func (c *memoryCache[V]) deleteExpired() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if now.After(e.expiration) {
			delete(c.entries, key)
			count++
		}
	}
	c.evictions.Add(int64(count))
	return count
}

func (c *memoryCache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

func (c *memoryCache[V]) janitor(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

type noOpCache[V any] struct{}

// NewNoOp returns a cache that stores nothing, used when caching is disabled.
func NewNoOp[V any]() Cache[V] {
	return noOpCache[V]{}
}

func (noOpCache[V]) Get(string) (V, bool) {
	var zero V
	return zero, false
}
func (noOpCache[V]) Set(string, V, time.Duration) {}
func (noOpCache[V]) Delete(string)                {}
func (noOpCache[V]) Clear()                       {}
func (noOpCache[V]) Stats() Stats                 { return Stats{} }
func (noOpCache[V]) Close()                       {}
