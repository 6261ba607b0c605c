package seo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(10, clock.Now)

	c.Set(ctx, "acme.com", "<x/>", time.Hour)
	if got, ok := c.Get(ctx, "acme.com"); !ok || got != "<x/>" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	clock.Advance(59 * time.Minute)
	if _, ok := c.Get(ctx, "acme.com"); !ok {
		t.Error("entry expired early")
	}
	clock.Advance(time.Minute)
	if _, ok := c.Get(ctx, "acme.com"); ok {
		t.Error("entry served at expiry")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want expired entry removed", c.Len())
	}
	if _, ok := c.Get(ctx, "other.com"); ok {
		t.Error("unknown host hit")
	}
}

func TestMemoryCache_ZeroTTLNotStored(t *testing.T) {
	c := NewMemoryCache(10, nil)
	c.Set(context.Background(), "acme.com", "<x/>", 0)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestMemoryCache_Bounded(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(2, clock.Now)

	c.Set(ctx, "a", "A", time.Hour)
	c.Set(ctx, "b", "B", 2*time.Hour)
	c.Set(ctx, "c", "C", 3*time.Hour)
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("entry closest to expiry should have been evicted")
	}

	// Expired entries go first.
	clock.Advance(2 * time.Hour)
	c.Set(ctx, "d", "D", time.Hour)
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Error("live entry evicted while an expired one was present")
	}
	if _, ok := c.Get(ctx, "d"); !ok {
		t.Error("new entry missing")
	}

	// Overwriting an existing key never evicts.
	c.Set(ctx, "d", "D2", time.Hour)
	if got, _ := c.Get(ctx, "c"); got != "C" {
		t.Error("overwrite evicted another entry")
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(50, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				host := fmt.Sprintf("h%d.com", (i*j)%80)
				c.Set(ctx, host, host, time.Minute)
				c.Get(ctx, host)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 50 {
		t.Errorf("Len = %d, want <= 50", c.Len())
	}
}

func TestRedisCache_UnreachableIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCache(client, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c.Set(ctx, "acme.com", "<x/>", time.Hour)
	if _, ok := c.Get(ctx, "acme.com"); ok {
		t.Error("Get on unreachable redis reported a hit")
	}
}
