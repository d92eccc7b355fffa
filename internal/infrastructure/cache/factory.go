package cache

import (
	"context"
	"fmt"
	"io"

	"github.com/salesinsight/backend/internal/application/analytics"
	"github.com/salesinsight/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Store is a result cache that owns resources released on shutdown
type Store interface {
	analytics.ResultCache
	io.Closer
}

// noopStore is used when caching is disabled
type noopStore struct {
	analytics.NoopResultCache
}

func (noopStore) Close() error { return nil }

// ResultCacheFactory creates result caches based on configuration
type ResultCacheFactory struct {
	redisConfig config.RedisConfig
	cacheConfig config.CacheConfig
	logger      *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*ResultCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *ResultCacheFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewResultCacheFactory creates a new factory
func NewResultCacheFactory(redisCfg config.RedisConfig, cacheCfg config.CacheConfig, opts ...FactoryOption) *ResultCacheFactory {
	f := &ResultCacheFactory{
		redisConfig: redisCfg,
		cacheConfig: cacheCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache creates a Redis-backed result cache
func (f *ResultCacheFactory) CreateRedisCache(ctx context.Context) (*RedisResultCache, error) {
	c, err := NewRedisResultCache(ctx, RedisConfig{
		Addr:      f.redisConfig.Addr(),
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.cacheConfig.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis result cache: %w", err)
	}
	return c, nil
}

// CreateStore returns a no-op store when caching is disabled. Otherwise it
// tries Redis and falls back to the in-memory cache when allowed.
func (f *ResultCacheFactory) CreateStore(ctx context.Context) (Store, error) {
	if !f.cacheConfig.Enabled {
		f.logger.Info("result cache disabled")
		return noopStore{}, nil
	}

	store, err := f.CreateRedisCache(ctx)
	if err == nil {
		f.logger.Info("using Redis result cache", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.cacheConfig.InMemoryFallback {
		return nil, fmt.Errorf("redis required for result cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory result cache. "+
		"Cached results are not shared across instances.",
		zap.Error(err),
	)
	return NewInMemoryResultCache(), nil
}
