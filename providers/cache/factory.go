package cache

import (
	"log/slog"
	"time"

	"routeweather.app/config"
)

// NewFromConfig selects the backend once at startup: Redis when an
// address is configured, otherwise the process-local fallback. Callers
// only ever see the Cache interface.
func NewFromConfig(cfg *config.CacheConfig) Cache {
	if cfg.RedisAddr == "" {
		slog.Info("No Redis address configured, using in-memory cache")
		return NewMemoryCache()
	}

	redisCache, err := NewRedisCache(&RedisCacheConfig{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		slog.Error("Redis unavailable, falling back to in-memory cache", "error", err)
		return NewMemoryCache()
	}

	return redisCache
}
