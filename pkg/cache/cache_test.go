package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestPurge(t *testing.T) {
	c := New()
	c.Set("stale", "v", 1*time.Millisecond)
	c.Set("fresh", "v", 1*time.Second)
	time.Sleep(10 * time.Millisecond)
	c.Purge()
	if _, ok := c.Get("stale"); ok {
		t.Fatalf("expected stale entry to be purged")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatalf("expected fresh entry to survive purge")
	}
}
