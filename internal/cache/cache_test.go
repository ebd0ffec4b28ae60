package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"netxlate/internal/core"
)

var _ core.Cache = (*LRUCache)(nil)

// newTestCache returns a cache driven by a manual clock.
func newTestCache(capacity int) (*LRUCache, *time.Time) {
	c := New(capacity, 0)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestLRUCache_SetGet(t *testing.T) {
	c, _ := newTestCache(4)
	c.Set("a", 1, time.Minute)

	v, ok := c.Get("a")
	if !ok || v.(int) != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(4)
	c.Set("a", 1, time.Minute)

	*clock = clock.Add(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry expired early")
	}
	*clock = clock.Add(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("entry should be expired at its deadline")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after expired Get", c.Len())
	}
}

func TestLRUCache_NonPositiveTTL(t *testing.T) {
	c, _ := newTestCache(4)
	c.Set("zero", 1, 0)
	c.Set("negative", 1, -time.Second)
	if _, ok := c.Get("zero"); ok {
		t.Error("zero TTL entry should not be returned")
	}
	if _, ok := c.Get("negative"); ok {
		t.Error("negative TTL entry should not be returned")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2)
	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Get("a")
	c.Set("c", 3, time.Hour)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should still be cached", key)
		}
	}
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c, clock := newTestCache(2)
	c.Set("a", 1, time.Second)
	c.Set("a", 2, time.Hour)
	*clock = clock.Add(time.Minute)

	v, ok := c.Get("a")
	if !ok || v.(int) != 2 {
		t.Errorf("Get(a) = %v, %v, want 2", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRUCache_Sweep(t *testing.T) {
	c, clock := newTestCache(8)
	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	*clock = clock.Add(time.Minute)

	c.sweep()
	if c.Len() != 1 {
		t.Errorf("Len() after sweep = %d, want 1", c.Len())
	}
}

func TestLRUCache_BackgroundSweepStops(t *testing.T) {
	c := New(4, time.Millisecond)
	c.Set("a", 1, time.Nanosecond)
	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Error("background sweep did not remove the expired entry")
	}
	c.Stop()
	c.Stop()
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	c := New(64, 0)
	defer c.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (n+j)%80)
				c.Set(key, j, time.Minute)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
