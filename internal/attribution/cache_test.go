package attribution

import (
	"context"
	"testing"

	"overwatch-ingest/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestCache(t *testing.T) *Cache {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { redisClient.Close() })

	return NewCache(store.NewRedisKV(redisClient), zap.NewNop())
}

func TestCache_ComputesAndCaches(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()
	key := KeyFor("scn-1", "doc-1")

	entities := []Entity{
		{ID: "p1", Kind: "priority", TargetName: "SA-21 Battery"},
	}

	first := cache.Resolve(ctx, key, "Destroy the SA-21 Battery.", entities)
	require.Len(t, first, 1)

	// 第二次命中缓存：即使原文变了也返回缓存值
	second := cache.Resolve(ctx, key, "completely different text", entities)
	require.Len(t, second, 1)
	assert.Equal(t, first[0], second[0])
}

func TestCache_DifferentKeysIndependent(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	entities := []Entity{
		{ID: "p1", Kind: "priority", TargetName: "SA-21 Battery"},
	}

	hit := cache.Resolve(ctx, KeyFor("scn-1", "doc-1"), "Destroy the SA-21 Battery.", entities)
	require.Len(t, hit, 1)

	miss := cache.Resolve(ctx, KeyFor("scn-1", "doc-2"), "nothing to find", entities)
	assert.Empty(t, miss)
}

func TestCache_NilKVStillComputes(t *testing.T) {
	cache := NewCache(nil, zap.NewNop())
	ctx := context.Background()

	matches := cache.Resolve(ctx, KeyFor("scn-1", "doc-1"), "Destroy the SA-21 Battery.", []Entity{
		{ID: "p1", Kind: "priority", TargetName: "SA-21 Battery"},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, "SA-21 Battery", matches[0].Matched)
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, "overwatch:attribution:scn-1:doc-9", KeyFor("scn-1", "doc-9"))
}
