package analytics

import (
	"context"
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
)

// Settings tunes the analytics services
type Settings struct {
	DefaultTopN       int
	CustomerTopN      int
	ConcentrationTopK int
	TrendMonths       int
	ForecastTopLimit  int
	MaxConcurrency    int
	CacheTTL          time.Duration
	NarrationTimeout  time.Duration
	RFM               RFMOptions
}

// DefaultSettings returns the stock analytics settings
func DefaultSettings() Settings {
	return Settings{
		DefaultTopN:       10,
		CustomerTopN:      5,
		ConcentrationTopK: DefaultConcentrationTopK,
		TrendMonths:       12,
		ForecastTopLimit:  50,
		MaxConcurrency:    4,
		CacheTTL:          5 * time.Minute,
		NarrationTimeout:  30 * time.Second,
		RFM:               DefaultRFMOptions(),
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.DefaultTopN <= 0 {
		s.DefaultTopN = d.DefaultTopN
	}
	if s.CustomerTopN <= 0 {
		s.CustomerTopN = d.CustomerTopN
	}
	if s.ConcentrationTopK <= 0 {
		s.ConcentrationTopK = d.ConcentrationTopK
	}
	if s.TrendMonths <= 0 {
		s.TrendMonths = d.TrendMonths
	}
	if s.ForecastTopLimit <= 0 {
		s.ForecastTopLimit = d.ForecastTopLimit
	}
	if s.MaxConcurrency <= 0 {
		s.MaxConcurrency = d.MaxConcurrency
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = d.CacheTTL
	}
	if s.NarrationTimeout <= 0 {
		s.NarrationTimeout = d.NarrationTimeout
	}
	if s.RFM.Basis == "" {
		s.RFM.Basis = d.RFM.Basis
	}
	if s.RFM.Weights.Sum() == 0 {
		s.RFM.Weights = d.RFM.Weights
	}
	if s.RFM.Bands == (analytics.BandConfig{}) {
		s.RFM.Bands = d.RFM.Bands
	}
	return s
}

// MetricsRecorder receives analytics instrumentation events
type MetricsRecorder interface {
	RecordComputation(ctx context.Context, operation string, d time.Duration, err error)
	RecordCacheLookup(ctx context.Context, operation string, hit bool)
	RecordCollaboratorFailure(ctx context.Context, collaborator string)
}

type noopRecorder struct{}

func (noopRecorder) RecordComputation(context.Context, string, time.Duration, error) {}
func (noopRecorder) RecordCacheLookup(context.Context, string, bool)                 {}
func (noopRecorder) RecordCollaboratorFailure(context.Context, string)               {}
