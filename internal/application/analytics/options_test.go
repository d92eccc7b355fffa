package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type degradable struct {
	Value int  `json:"value"`
	Bad   bool `json:"bad"`
}

func (d degradable) Degraded() bool { return d.Bad }

func TestCached(t *testing.T) {
	counter := func(calls *int, v int) func(context.Context) (degradable, error) {
		return func(context.Context) (degradable, error) {
			*calls++
			return degradable{Value: v}, nil
		}
	}

	t.Run("hit skips compute", func(t *testing.T) {
		o := newServiceOptions([]Option{WithCache(newMemoryCache())})
		calls := 0
		first, err := cached(context.Background(), &o, "op", "k", counter(&calls, 1))
		require.NoError(t, err)
		second, err := cached(context.Background(), &o, "op", "k", counter(&calls, 2))
		require.NoError(t, err)

		assert.Equal(t, 1, calls)
		assert.Equal(t, first, second)
	})

	t.Run("cache failures do not fail the request", func(t *testing.T) {
		cache := newMemoryCache()
		cache.getErr = errBoom
		cache.setErr = errBoom
		o := newServiceOptions([]Option{WithCache(cache)})

		calls := 0
		got, err := cached(context.Background(), &o, "op", "k", counter(&calls, 7))
		require.NoError(t, err)
		assert.Equal(t, 7, got.Value)
		assert.Equal(t, 1, calls)
	})

	t.Run("refresh recomputes and overwrites", func(t *testing.T) {
		cache := newMemoryCache()
		o := newServiceOptions([]Option{WithCache(cache)})
		calls := 0
		_, err := cached(context.Background(), &o, "op", "k", counter(&calls, 1))
		require.NoError(t, err)

		_, err = cached(WithCacheRefresh(context.Background()), &o, "op", "k", counter(&calls, 2))
		require.NoError(t, err)

		got, err := cached(context.Background(), &o, "op", "k", counter(&calls, 3))
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 2, got.Value)
	})

	t.Run("degraded results are not stored", func(t *testing.T) {
		cache := newMemoryCache()
		o := newServiceOptions([]Option{WithCache(cache)})
		got, err := cached(context.Background(), &o, "op", "k", func(context.Context) (degradable, error) {
			return degradable{Value: 1, Bad: true}, nil
		})
		require.NoError(t, err)
		assert.True(t, got.Bad)
		assert.Zero(t, cache.len())
	})

	t.Run("compute errors are returned and not stored", func(t *testing.T) {
		cache := newMemoryCache()
		o := newServiceOptions([]Option{WithCache(cache)})
		_, err := cached(context.Background(), &o, "op", "k", func(context.Context) (degradable, error) {
			return degradable{}, errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Zero(t, cache.len())
	})
}

func TestCacheKey(t *testing.T) {
	w := window(2024, 3, 1, 2024, 4, 1)
	assert.Equal(t, "sales_metrics:unit=all:2024-03-01..2024-04-01:false", CacheKey(OpSalesMetrics, nil, w, false))
	assert.Equal(t, "rfm_analysis:unit=U1:quantity", CacheKey(OpRFM, strPtr("U1"), analytics.BasisQuantity))
}

func TestSettingsWithDefaults(t *testing.T) {
	s := Settings{CustomerTopN: 3, CacheTTL: time.Minute}.withDefaults()
	d := DefaultSettings()

	assert.Equal(t, 3, s.CustomerTopN)
	assert.Equal(t, time.Minute, s.CacheTTL)
	assert.Equal(t, d.DefaultTopN, s.DefaultTopN)
	assert.Equal(t, d.MaxConcurrency, s.MaxConcurrency)
	assert.Equal(t, d.RFM, s.RFM)
}

func TestNewServiceOptions_IgnoresNil(t *testing.T) {
	o := newServiceOptions([]Option{WithCache(nil), WithMetrics(nil), WithLogger(nil)})
	assert.IsType(t, NoopResultCache{}, o.cache)
	assert.NotNil(t, o.metrics)
	assert.NotNil(t, o.logger)
	assert.Nil(t, o.limiter)
}
