package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steam-soundboard/backend/pkg/cache"
)

func TestQuotaCacheRoundTrip(t *testing.T) {
	kv := cache.NewMemory(0)
	q := NewQuotaCache(kv, time.Minute)
	ctx := context.Background()

	_, ok := q.Get(ctx, "765611")
	assert.False(t, ok)

	q.Set(ctx, "765611", 12)
	count, ok := q.Get(ctx, "765611")
	require.True(t, ok)
	assert.Equal(t, int64(12), count)

	// Identities are independent
	_, ok = q.Get(ctx, "999999")
	assert.False(t, ok)
}

func TestQuotaCacheInvalidate(t *testing.T) {
	kv := cache.NewMemory(0)
	q := NewQuotaCache(kv, time.Minute)
	ctx := context.Background()

	q.Set(ctx, "765611", 3)
	q.Invalidate(ctx, "765611")

	_, ok := q.Get(ctx, "765611")
	assert.False(t, ok)

	// Invalidating an absent entry is a no-op
	q.Invalidate(ctx, "765611")
}

func TestQuotaCacheUnparseableReadsAsMiss(t *testing.T) {
	kv := cache.NewMemory(0)
	q := NewQuotaCache(kv, time.Minute)
	ctx := context.Background()

	kv.Set(ctx, "quota:765611", "not-a-number", time.Minute)

	_, ok := q.Get(ctx, "765611")
	assert.False(t, ok)
}

func TestQuotaCacheTTL(t *testing.T) {
	kv := cache.NewMemory(0)
	q := NewQuotaCache(kv, 10*time.Millisecond)
	ctx := context.Background()

	q.Set(ctx, "765611", 4)
	time.Sleep(25 * time.Millisecond)

	_, ok := q.Get(ctx, "765611")
	assert.False(t, ok)
}
