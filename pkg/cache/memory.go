package cache

import (
	"context"
	"sync"
	"time"
)

// item is a cached value with its expiration
type item struct {
	value      string
	expiration int64
}

// expired checks if the cache item has expired
func (it item) expired() bool {
	if it.expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > it.expiration
}

// Memory is a thread-safe in-process KV with expiration. It is the
// default backend when Redis is not configured and the backend used
// throughout the tests.
type Memory struct {
	items           map[string]item
	mu              sync.RWMutex
	cleanupInterval time.Duration
	stop            chan struct{}
}

// NewMemory creates a new in-memory cache. A cleanup goroutine purges
// expired entries every cleanupInterval; pass 0 to disable it.
func NewMemory(cleanupInterval time.Duration) *Memory {
	m := &Memory{
		items:           make(map[string]item),
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go m.startCleanupTimer()
	}

	return m
}

// Get retrieves an item from the cache
func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, found := m.items[key]
	if !found || it.expired() {
		return "", false
	}
	return it.value, true
}

// Set adds an item to the cache with the given TTL
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = item{
		value:      value,
		expiration: exp,
	}
}

// Delete removes an item from the cache
func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
}

// Count returns the number of items in the cache (including expired items)
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// Close stops the cleanup goroutine
func (m *Memory) Close() {
	close(m.stop)
}

// startCleanupTimer starts the cleanup ticker
func (m *Memory) startCleanupTimer() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.deleteExpired()
		case <-m.stop:
			return
		}
	}
}

// deleteExpired deletes all expired items from the cache
func (m *Memory) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range m.items {
		if v.expiration > 0 && now > v.expiration {
			delete(m.items, k)
		}
	}
}
