package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(capacity int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](capacity, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUGetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("get a: %q %v", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" || c.Size() != 1 {
		t.Fatalf("overwrite: %q size=%d", v, c.Size())
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("missing key reported present")
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a was recently used and should stay")
	}
	if c.Size() != 2 {
		t.Fatalf("size: %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestCache(4, time.Minute)
	c.Set("a", "1")
	clk.advance(30 * time.Second)
	c.Set("b", "2")
	clk.advance(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be expired")
	}
	if removed := c.CleanExpired(); removed != 0 {
		t.Fatalf("a was already removed by Get, got %d", removed)
	}
	clk.advance(time.Minute)
	if removed := c.CleanExpired(); removed != 1 || c.Size() != 0 {
		t.Fatalf("removed=%d size=%d", removed, c.Size())
	}
}

func TestLRUDeleteAndClear(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	if _, ok := c.Get("a"); ok || c.Size() != 1 {
		t.Fatalf("delete failed, size=%d", c.Size())
	}
	c.Clear()
	if c.Size() != 0 {
		t.Fatalf("clear left %d entries", c.Size())
	}
	c.Set("c", "3")
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Fatalf("cache unusable after clear")
	}
}

func TestManagerSweepAndStop(t *testing.T) {
	c, clk := newTestCache(4, time.Second)
	c.Set("a", "1")
	clk.advance(2 * time.Second)

	m := NewManager()
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("sweep removed %d", n)
	}

	m.StartCleanup(context.Background(), 10*time.Millisecond)
	m.StartCleanup(context.Background(), 10*time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	NewManager().Stop()
}
