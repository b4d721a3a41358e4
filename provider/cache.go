package provider

import (
	"sync"
	"time"
)

// Clock abstracts time for TTL caches so expiry is testable without sleeps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock Clock used outside of tests.
var SystemClock Clock = systemClock{}

type tokenEntry struct {
	value     string
	expiresAt time.Time
}

// TokenCache is a process-wide TTL cache for short-lived vendor tokens,
// keyed by environment. Concurrent first-use may race into duplicate logins;
// that is tolerated, login is idempotent and the last write wins.
type TokenCache struct {
	mu      sync.RWMutex
	entries map[string]tokenEntry
	ttl     time.Duration
	clock   Clock
}

// NewTokenCache creates a token cache with the given TTL. A nil clock uses
// the system clock.
func NewTokenCache(ttl time.Duration, clock Clock) *TokenCache {
	if clock == nil {
		clock = SystemClock
	}
	return &TokenCache{
		entries: make(map[string]tokenEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the cached token for key, or "" on a miss or expiry.
func (c *TokenCache) Get(key string) string {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.clock.Now().After(entry.expiresAt) {
		return ""
	}
	return entry.value
}

// Set stores a token for key with the cache TTL.
func (c *TokenCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = tokenEntry{
		value:     value,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

// Invalidate drops the entry for key, forcing re-authentication on next use.
func (c *TokenCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}
