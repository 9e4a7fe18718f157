package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores JSON values under namespace-versioned keys. Bumping a
// namespace's version orphans every key built before the bump. Without a
// redis client the cache keeps entries in process memory.
type JSONCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	versions  map[string]localVersion
	entries   map[string]localEntry
	lastSweep time.Time
}

type localEntry struct {
	payload []byte
	expires time.Time
}

type localVersion struct {
	n       int64
	expires time.Time
}

// maxLocalEntries caps the in-process fallback when no TTL applies.
const maxLocalEntries = 10000

// NewJSONCache instantiates the cache helper. client may be nil.
func NewJSONCache(client *redis.Client, prefix string, ttl time.Duration) *JSONCache {
	return &JSONCache{
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		now:      time.Now,
		versions: make(map[string]localVersion),
		entries:  make(map[string]localEntry),
	}
}

func (c *JSONCache) versionKey(namespace string) string {
	return fmt.Sprintf("%s:%s:version", c.prefix, namespace)
}

// Version returns the namespace version, initialising it when missing.
func (c *JSONCache) Version(ctx context.Context, namespace string) (int64, error) {
	if c.client == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		now := c.now()
		c.sweepLocked(now)
		v, ok := c.versions[namespace]
		if !ok || c.expired(v.expires, now) {
			c.dropNamespaceLocked(namespace)
			v = localVersion{n: 1, expires: c.expiry(now)}
			c.versions[namespace] = v
		}
		return v.n, nil
	}
	key := c.versionKey(namespace)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		if err := c.client.SetNX(ctx, key, 1, c.ttl).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes a cache key under the namespace's current version.
func (c *JSONCache) BuildKey(ctx context.Context, namespace string, parts ...string) (string, error) {
	ver, err := c.Version(ctx, namespace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%d:%s", c.prefix, namespace, ver, strings.Join(parts, ":")), nil
}

// FetchJSON loads a cached value into dest or populates it using the loader.
// Loader errors are returned and never cached.
func (c *JSONCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	payload, ok, err := c.get(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		return json.Unmarshal(payload, dest)
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.set(ctx, key, raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Lookup reads a cached value without populating it.
func (c *JSONCache) Lookup(ctx context.Context, key string, dest any) (bool, error) {
	payload, ok, err := c.get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return true, json.Unmarshal(payload, dest)
}

// Bump invalidates every key of the namespace.
func (c *JSONCache) Bump(ctx context.Context, namespace string) error {
	if c.client == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		now := c.now()
		v, ok := c.versions[namespace]
		if !ok || c.expired(v.expires, now) {
			v.n = 1
		}
		c.versions[namespace] = localVersion{n: v.n + 1, expires: c.expiry(now)}
		c.dropNamespaceLocked(namespace)
		return nil
	}
	key := c.versionKey(namespace)
	if err := c.client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *JSONCache) get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.client == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		entry, ok := c.entries[key]
		if !ok {
			return nil, false, nil
		}
		if c.expired(entry.expires, c.now()) {
			delete(c.entries, key)
			return nil, false, nil
		}
		return entry.payload, true, nil
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (c *JSONCache) set(ctx context.Context, key string, raw []byte) error {
	if c.client == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		now := c.now()
		c.sweepLocked(now)
		if _, ok := c.entries[key]; !ok && len(c.entries) >= maxLocalEntries {
			c.sweepAt(now)
			for k := range c.entries {
				if len(c.entries) < maxLocalEntries {
					break
				}
				delete(c.entries, k)
			}
		}
		c.entries[key] = localEntry{payload: raw, expires: c.expiry(now)}
		return nil
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *JSONCache) expiry(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(c.ttl)
}

func (c *JSONCache) expired(expires, now time.Time) bool {
	return !expires.IsZero() && now.After(expires)
}

// sweepLocked evicts expired local state at most once per TTL.
func (c *JSONCache) sweepLocked(now time.Time) {
	if c.ttl <= 0 || now.Sub(c.lastSweep) < c.ttl {
		return
	}
	c.sweepAt(now)
}

func (c *JSONCache) sweepAt(now time.Time) {
	c.lastSweep = now
	for ns, v := range c.versions {
		if c.expired(v.expires, now) {
			delete(c.versions, ns)
			c.dropNamespaceLocked(ns)
		}
	}
	for k, e := range c.entries {
		if c.expired(e.expires, now) {
			delete(c.entries, k)
		}
	}
}

// dropNamespaceLocked removes every local entry built under namespace.
func (c *JSONCache) dropNamespaceLocked(namespace string) {
	head := c.prefix + ":" + namespace + ":"
	for k := range c.entries {
		rest, ok := strings.CutPrefix(k, head)
		if !ok {
			continue
		}
		ver, _, ok := strings.Cut(rest, ":")
		if ok && isDigits(ver) {
			delete(c.entries, k)
		}
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
