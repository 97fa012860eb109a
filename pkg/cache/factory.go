package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
)

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// New selects the configured implementation: RedisCache unless disabled
// or its construction fails, in which case it falls back to MemoryCache
// with identical Get/SetWithTTL semantics.
func New(cfg config.CacheConfig, log *zap.Logger) Cache {
	if cfg.Disabled {
		log.Info("cache: remote store disabled, using in-process fallback")
		return NewMemoryCache()
	}

	redisCache, err := NewRedis(cfg, log)
	if err != nil {
		log.Warn("cache: remote store unavailable, using in-process fallback", zap.Error(err))
		return NewMemoryCache()
	}
	return redisCache
}
