package utils

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", 42, time.Minute)

	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("Get = %v, %t", v, ok)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", 10*time.Millisecond)

	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry still readable")
	}
}

func TestTTLCacheInvalidate(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", time.Minute)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Error("invalidated entry still readable")
	}
}

func TestTTLCacheMissingKey(t *testing.T) {
	c := NewTTLCache()
	if _, ok := c.Get("absent"); ok {
		t.Error("missing key reported as present")
	}
}
