package handler

import (
	"context"

	analyticsapp "github.com/salesinsight/backend/internal/application/analytics"
	"github.com/salesinsight/backend/internal/domain/analytics"
)

// SalesService is the part of the analytics service the sales and
// analytics endpoints need
type SalesService interface {
	SalesMetrics(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.SalesMetricsResponse, error)
	YTDComparison(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.ComparisonResponse, error)
	MTDStats(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.ComparisonResponse, error)
	AvailableMonths(ctx context.Context, unitID *string) ([]string, error)
	BusinessUnits(ctx context.Context) ([]analytics.BusinessUnit, error)
	DimensionBreakdown(ctx context.Context, q analyticsapp.DimensionQuery) (*analyticsapp.DimensionBreakdownResponse, error)
	RegionalPerformance(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.RegionalPerformanceResponse, error)
	CustomerAnalytics(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.CustomerAnalyticsResponse, error)
	PaymentModes(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.PaymentModeResponse, error)
}

// RFMService runs customer segmentation
type RFMService interface {
	Analyze(ctx context.Context, q analyticsapp.RFMQuery) (*analyticsapp.RFMResponse, error)
	Segments(ctx context.Context, q analyticsapp.RFMQuery) ([]analytics.SegmentSummary, error)
}

// ForecastService serves merged actual and forecast series
type ForecastService interface {
	Global(ctx context.Context, unitID *string) (*analyticsapp.ForecastSeriesResponse, error)
	Items(ctx context.Context, unitID *string, limit int) (*analyticsapp.ForecastCollectionResponse, error)
	Territories(ctx context.Context, unitID *string, limit int) (*analyticsapp.ForecastCollectionResponse, error)
	Insights(ctx context.Context, req analyticsapp.InsightRequest) (*analyticsapp.InsightResponse, error)
}

// NarrationService narrates sales summaries
type NarrationService interface {
	Narrate(ctx context.Context, req analyticsapp.NarrativeRequest) (*analyticsapp.NarrativeResponse, error)
}

var (
	_ SalesService     = (*analyticsapp.SalesAnalyticsService)(nil)
	_ RFMService       = (*analyticsapp.RFMService)(nil)
	_ ForecastService  = (*analyticsapp.ForecastService)(nil)
	_ NarrationService = (*analyticsapp.SalesInsightService)(nil)
)
