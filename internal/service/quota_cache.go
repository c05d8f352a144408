package service

import (
	"context"
	"strconv"
	"time"

	"steam-soundboard/backend/pkg/cache"
)

const quotaKeyPrefix = "quota:"

// QuotaCache holds per-identity sound counts with a bounded staleness
// window. It is never authoritative: a miss (or any backing error,
// absorbed by the KV layer) sends the caller to the sound repository.
type QuotaCache struct {
	kv  cache.KV
	ttl time.Duration
}

// NewQuotaCache creates a quota cache with the given TTL
func NewQuotaCache(kv cache.KV, ttl time.Duration) *QuotaCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QuotaCache{kv: kv, ttl: ttl}
}

// Get returns the cached count for the identity, or ok=false on a miss
func (q *QuotaCache) Get(ctx context.Context, steamID string) (int64, bool) {
	raw, ok := q.kv.Get(ctx, quotaKeyPrefix+steamID)
	if !ok {
		return 0, false
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Unparseable entries read as misses
		return 0, false
	}
	return count, true
}

// Set stores the count for the identity
func (q *QuotaCache) Set(ctx context.Context, steamID string, count int64) {
	q.kv.Set(ctx, quotaKeyPrefix+steamID, strconv.FormatInt(count, 10), q.ttl)
}

// Invalidate drops the cached count after a mutation. A failed
// invalidation is an accepted staleness window, absorbed by the KV layer.
func (q *QuotaCache) Invalidate(ctx context.Context, steamID string) {
	q.kv.Delete(ctx, quotaKeyPrefix+steamID)
}
