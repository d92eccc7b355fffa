package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ResultCache stores computed analytics responses
type ResultCache interface {
	// Get loads the value stored under key into dest.
	// It reports false when the key is absent or expired.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// NoopResultCache never stores anything
type NoopResultCache struct{}

// Get always misses
func (NoopResultCache) Get(context.Context, string, any) (bool, error) { return false, nil }

// Set discards the value
func (NoopResultCache) Set(context.Context, string, any, time.Duration) error { return nil }

// CacheKey builds a deterministic cache key for an operation and its inputs
func CacheKey(op string, unitID *string, parts ...any) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteString(":unit=")
	if unitID != nil {
		b.WriteString(*unitID)
	} else {
		b.WriteString("all")
	}
	for _, p := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}
