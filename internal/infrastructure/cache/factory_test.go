package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/salesinsight/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestResultCacheFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled cache is a no-op", func(t *testing.T) {
		f := NewResultCacheFactory(unreachableRedis, config.CacheConfig{Enabled: false})
		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()

		require.NoError(t, store.Set(ctx, "k", 1, time.Minute))
		var got int
		hit, err := store.Get(ctx, "k", &got)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("falls back to in-memory when Redis is down", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		f := NewResultCacheFactory(unreachableRedis,
			config.CacheConfig{Enabled: true, InMemoryFallback: true},
			WithLogger(zap.New(core)),
		)
		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()

		_, ok := store.(*InMemoryResultCache)
		assert.True(t, ok)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewResultCacheFactory(unreachableRedis, config.CacheConfig{Enabled: true})
		store, err := f.CreateStore(ctx)
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("nil logger keeps the default", func(t *testing.T) {
		f := NewResultCacheFactory(unreachableRedis, config.CacheConfig{}, WithLogger(nil))
		assert.NotNil(t, f.logger)
	})
}

func TestRedisResultCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        unreachableRedis.Addr(),
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisResultCacheWithClient(client, "")
	defer c.Close()
	ctx := context.Background()

	assert.Equal(t, DefaultKeyPrefix, c.keyPrefix)

	var got int
	hit, err := c.Get(ctx, "k", &got)
	assert.Error(t, err)
	assert.False(t, hit)

	assert.Error(t, c.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, c.Set(ctx, "k", 1, 0), "non-positive ttl skips the write")
}

func TestNewRedisResultCache_PingFailure(t *testing.T) {
	_, err := NewRedisResultCache(context.Background(), RedisConfig{
		Addr:        unreachableRedis.Addr(),
		DialTimeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}
