package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// AnalyticsMetrics records analytics computation, cache and collaborator
// instrumentation on an OpenTelemetry meter.
type AnalyticsMetrics struct {
	computationDuration *Histogram
	computationTotal    *Counter
	cacheLookups        *Counter
	collaboratorErrors  *Counter
}

// NewAnalyticsMetrics creates the analytics instruments on meter
func NewAnalyticsMetrics(meter metric.Meter) (*AnalyticsMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &AnalyticsMetrics{}
	var err error

	m.computationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "sales_analytics_computation_duration_seconds",
		Description: "Duration of analytics computations",
		Unit:        "s",
		Boundaries:  ComputationDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	m.computationTotal, err = NewCounter(meter,
		"sales_analytics_computation_total",
		"Number of analytics computations by outcome",
		"{computations}",
	)
	if err != nil {
		return nil, err
	}

	m.cacheLookups, err = NewCounter(meter,
		"sales_analytics_cache_lookups_total",
		"Result cache lookups by result",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}

	m.collaboratorErrors, err = NewCounter(meter,
		"sales_analytics_collaborator_failures_total",
		"Failures of the forecast source or narrator",
		"{failures}",
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordComputation records one computation and its outcome
func (m *AnalyticsMetrics) RecordComputation(ctx context.Context, operation string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.computationDuration.RecordDuration(ctx, d, AttrOperation.String(operation))
	m.computationTotal.Inc(ctx, AttrOperation.String(operation), AttrOutcome.String(outcome))
}

// RecordCacheLookup records a cache hit or miss
func (m *AnalyticsMetrics) RecordCacheLookup(ctx context.Context, operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(ctx, AttrOperation.String(operation), AttrCacheResult.String(result))
}

// RecordCollaboratorFailure records a failed call to an external collaborator
func (m *AnalyticsMetrics) RecordCollaboratorFailure(ctx context.Context, collaborator string) {
	m.collaboratorErrors.Inc(ctx, AttrCollaborator.String(collaborator))
}
