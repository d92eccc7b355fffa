package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type serviceOptions struct {
	cache    ResultCache
	metrics  MetricsRecorder
	logger   *zap.Logger
	settings Settings
	limiter  *rate.Limiter
}

// Option configures the analytics services
type Option func(*serviceOptions)

// WithCache sets the result cache
func WithCache(cache ResultCache) Option {
	return func(o *serviceOptions) {
		if cache != nil {
			o.cache = cache
		}
	}
}

// WithMetrics sets the instrumentation recorder
func WithMetrics(metrics MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSettings overrides the default settings. Zero fields keep their defaults.
func WithSettings(settings Settings) Option {
	return func(o *serviceOptions) {
		o.settings = settings.withDefaults()
	}
}

// WithNarrationLimiter paces calls to the narration collaborator
func WithNarrationLimiter(limiter *rate.Limiter) Option {
	return func(o *serviceOptions) {
		o.limiter = limiter
	}
}

func newServiceOptions(opts []Option) serviceOptions {
	o := serviceOptions{
		cache:    NoopResultCache{},
		metrics:  noopRecorder{},
		logger:   zap.NewNop(),
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type refreshKey struct{}

// WithCacheRefresh marks ctx so cached operations recompute and overwrite
// their entries instead of reading them
func WithCacheRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

func isRefresh(ctx context.Context) bool {
	v, _ := ctx.Value(refreshKey{}).(bool)
	return v
}

// cached serves key from the result cache or computes and stores it.
// Cache failures are logged and never fail the request. Degraded results
// are returned but not stored.
func cached[T any](ctx context.Context, o *serviceOptions, op, key string, compute func(context.Context) (T, error)) (T, error) {
	var out T
	if !isRefresh(ctx) {
		hit, err := o.cache.Get(ctx, key, &out)
		if err != nil {
			o.logger.Warn("Analytics cache read failed",
				zap.String("operation", op),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		o.metrics.RecordCacheLookup(ctx, op, hit && err == nil)
		if hit && err == nil {
			return out, nil
		}
	}

	start := time.Now()
	out, err := compute(ctx)
	o.metrics.RecordComputation(ctx, op, time.Since(start), err)
	if err != nil {
		var zero T
		return zero, err
	}

	if d, ok := any(out).(interface{ Degraded() bool }); ok && d.Degraded() {
		return out, nil
	}
	if err := o.cache.Set(ctx, key, out, o.settings.CacheTTL); err != nil {
		o.logger.Warn("Analytics cache write failed",
			zap.String("operation", op),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return out, nil
}
