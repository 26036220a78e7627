package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

// NewKeywordCache returns a Redis cache when Redis is enabled and reachable,
// otherwise the in-memory cache.
func NewKeywordCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) KeywordCache {
	if cfg.Enabled {
		c, err := NewRedisKeywordCache(ctx, cfg.Addr(), cfg.Password, cfg.DB)
		if err == nil {
			log.Info("Keyword cache backed by Redis", zap.String("addr", cfg.Addr()))
			return c
		}
		log.Warn("Redis unavailable, using in-memory keyword cache", zap.Error(err))
	}
	return NewInMemoryKeywordCache(0)
}
