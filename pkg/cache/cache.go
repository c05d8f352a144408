// Package cache provides the key/value cache used for quota counters and
// settings snapshots. Backing-store failures are never surfaced to callers:
// a failed Get reads as a miss and callers fall through to the authoritative
// source, a failed Set or Delete is logged and swallowed.
package cache

import (
	"context"
	"time"
)

// KV is a string key/value store with per-entry expiration.
type KV interface {
	// Get returns the cached value, or ok=false on a miss, an expired
	// entry, or any backing-store error.
	Get(ctx context.Context, key string) (value string, ok bool)

	// Set stores value under key for ttl. Failures are logged, not returned.
	Set(ctx context.Context, key, value string, ttl time.Duration)

	// Delete removes key. Failures are logged, not returned; a failed
	// delete is an accepted staleness window.
	Delete(ctx context.Context, key string)
}
