package seo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores rendered sitemaps by host. Implementations must be safe for concurrent use.
// A lookup error is reported as a miss.
type Cache interface {
	Get(ctx context.Context, host string) (xml string, ok bool)
	Set(ctx context.Context, host, xml string, ttl time.Duration)
}

// DefaultMaxEntries bounds a MemoryCache created with a non-positive size.
const DefaultMaxEntries = 10000

type cacheEntry struct {
	xml       string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. When full it first drops expired entries,
// then the entry closest to expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	max     int
	now     func() time.Time
}

// NewMemoryCache returns a cache holding at most maxEntries hosts. now may be nil.
func NewMemoryCache(maxEntries int, now func() time.Time) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{entries: make(map[string]cacheEntry), max: maxEntries, now: now}
}

// Get returns the entry for host while it has not expired.
func (c *MemoryCache) Get(_ context.Context, host string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[host]
	if !ok {
		return "", false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, host)
		return "", false
	}
	return e.xml, true
}

// Set stores xml for host until now+ttl.
func (c *MemoryCache) Set(_ context.Context, host, xml string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.entries[host]; !exists && len(c.entries) >= c.max {
		c.evictLocked(now)
	}
	c.entries[host] = cacheEntry{xml: xml, expiresAt: now.Add(ttl)}
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) evictLocked(now time.Time) {
	for h, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, h)
		}
	}
	if len(c.entries) < c.max {
		return
	}
	var oldest string
	var oldestAt time.Time
	for h, e := range c.entries {
		if oldest == "" || e.expiresAt.Before(oldestAt) {
			oldest, oldestAt = h, e.expiresAt
		}
	}
	delete(c.entries, oldest)
}

// RedisKeyPrefix namespaces sitemap keys.
const RedisKeyPrefix = "sitemap:"

// RedisCache shares sitemaps between replicas. Expiry is left to Redis.
type RedisCache struct {
	client redis.UniversalClient
	log    *zap.Logger
}

// NewRedisCache wraps client.
func NewRedisCache(client redis.UniversalClient, log *zap.Logger) *RedisCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, log: log}
}

// Get reads the cached sitemap for host.
func (c *RedisCache) Get(ctx context.Context, host string) (string, bool) {
	xml, err := c.client.Get(ctx, RedisKeyPrefix+host).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		c.log.Warn("sitemap cache read failed", zap.String("host", host), zap.Error(err))
		return "", false
	}
	return xml, true
}

// Set writes xml for host with ttl.
func (c *RedisCache) Set(ctx context.Context, host, xml string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, RedisKeyPrefix+host, xml, ttl).Err(); err != nil {
		c.log.Warn("sitemap cache write failed", zap.String("host", host), zap.Error(err))
	}
}
