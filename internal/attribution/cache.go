package attribution

import (
	"context"
	"encoding/json"
	"time"

	"overwatch-ingest/internal/store"

	"go.uber.org/zap"
)

const cacheTTL = 5 * time.Minute

// Cache 归因结果缓存。归因是持久化数据的纯函数，短TTL足够；
// kv 为 nil 时退化为每次现算
type Cache struct {
	kv     store.KV
	logger *zap.Logger
}

// NewCache 创建归因缓存
func NewCache(kv store.KV, logger *zap.Logger) *Cache {
	return &Cache{kv: kv, logger: logger}
}

// KeyFor 归因缓存键
func KeyFor(scenarioID, recordID string) string {
	return "overwatch:attribution:" + scenarioID + ":" + recordID
}

// Resolve 先查缓存，未命中则计算并回填。缓存故障只记日志，不影响结果
func (c *Cache) Resolve(ctx context.Context, key, rawText string, entities []Entity) []Match {
	if c.kv != nil {
		raw, err := c.kv.Get(ctx, key)
		if err == nil {
			var cached []Match
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached
			}
		} else if err != store.ErrMiss {
			c.logger.Warn("Attribution cache read failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	matches := MatchEntities(rawText, entities)

	if c.kv != nil {
		raw, err := json.Marshal(matches)
		if err == nil {
			if err := c.kv.Set(ctx, key, string(raw), cacheTTL); err != nil {
				c.logger.Warn("Attribution cache write failed",
					zap.String("key", key),
					zap.Error(err))
			}
		}
	}

	return matches
}
