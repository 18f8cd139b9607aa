// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T) (*memoryCache[[]string], *clock) {
	t.Helper()
	clk := &clock{t: time.Unix(1700000000, 0)}
	c := NewMemory[[]string](0).(*memoryCache[[]string])
	c.now = clk.now
	t.Cleanup(c.Close)
	return c, clk
}

func TestMemoryCache_GetSet(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set("dleyna://a/1", []string{"http://art/1.jpg"}, time.Minute)

	v, ok := c.Get("dleyna://a/1")
	require.True(t, ok)
	assert.Equal(t, []string{"http://art/1.jpg"}, v)

	_, ok = c.Get("dleyna://a/2")
	assert.False(t, ok)
}

func TestMemoryCache_EmptyValueIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set("k", nil, time.Minute)

	v, ok := c.Get("k")
	assert.True(t, ok, "cached absence must be distinguishable from a miss")
	assert.Nil(t, v)
}

func TestMemoryCache_Expiration(t *testing.T) {
	c, clk := newTestCache(t)
	c.Set("k", []string{"x"}, 50*time.Millisecond)

	_, ok := c.Get("k")
	require.True(t, ok)

	clk.advance(100 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)

	assert.Equal(t, 1, c.deleteExpired())
	assert.Equal(t, 0, c.Stats().CurrentSize)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set("a", []string{"1"}, time.Minute)
	c.Set("b", []string{"2"}, time.Minute)
	c.Set("c", []string{"3"}, time.Minute)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Stats().CurrentSize)

	c.Clear()
	assert.Equal(t, 0, c.Stats().CurrentSize)
}

func TestMemoryCache_Stats(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set("key1", []string{"v"}, time.Minute)
	c.Set("key2", []string{"v"}, time.Minute)

	c.Get("key1")
	c.Get("key1")
	c.Get("nonexistent")

	assert.Equal(t, Stats{Hits: 2, Misses: 1, Sets: 2, CurrentSize: 2}, c.Stats())
}

func TestMemoryCache_JanitorStopsOnClose(t *testing.T) {
	c := NewMemory[string](time.Millisecond)
	c.Set("k", "v", time.Nanosecond)
	assert.Eventually(t, func() bool { return c.Stats().CurrentSize == 0 }, time.Second, 5*time.Millisecond)
	c.Close()
	c.Close()
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemory[int](time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Set("key", i, time.Minute)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Get("key")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(400), c.Stats().Sets)
}

func TestNoOpCache(t *testing.T) {
	c := NewNoOp[string]()
	c.Set("key", "value", time.Minute)

	_, ok := c.Get("key")
	assert.False(t, ok)
	c.Delete("key")
	c.Clear()
	c.Close()
	assert.Equal(t, Stats{}, c.Stats())
}

func BenchmarkMemoryCache_Get(b *testing.B) {
	c := NewMemory[string](0)
	defer c.Close()
	c.Set("key", "value", time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}
