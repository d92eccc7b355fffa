package analytics

import (
	"context"
	"time"

	"github.com/salesinsight/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// WarmUpExecutor precomputes cached analytics for a business unit
type WarmUpExecutor struct {
	sales    *SalesAnalyticsService
	rfm      *RFMService
	forecast *ForecastService
	logger   *zap.Logger
}

// NewWarmUpExecutor creates a new warm-up executor
func NewWarmUpExecutor(sales *SalesAnalyticsService, rfm *RFMService, forecast *ForecastService, logger *zap.Logger) *WarmUpExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WarmUpExecutor{
		sales:    sales,
		rfm:      rfm,
		forecast: forecast,
		logger:   logger,
	}
}

// Execute implements scheduler.JobExecutor
func (e *WarmUpExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	ctx = WithCacheRefresh(ctx)
	start := time.Now()

	var err error
	switch job.Kind {
	case scheduler.WarmKindDashboard:
		err = e.warmDashboard(ctx, job.UnitID)
	case scheduler.WarmKindRFM:
		_, err = e.rfm.Analyze(ctx, RFMQuery{Period: PeriodRequest{UnitID: job.UnitID}})
	case scheduler.WarmKindForecast:
		err = e.warmForecast(ctx, job.UnitID)
	default:
		return scheduler.ErrInvalidWarmKind
	}
	if err != nil {
		return err
	}

	e.logger.Info("Analytics cache warmed",
		zap.String("kind", string(job.Kind)),
		zap.String("unit_id", job.UnitLabel()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// warmDashboard recomputes the current-month dashboard
func (e *WarmUpExecutor) warmDashboard(ctx context.Context, unitID *string) error {
	req := PeriodRequest{UnitID: unitID}
	if _, err := e.sales.SalesMetrics(ctx, req); err != nil {
		return err
	}
	if _, err := e.sales.YTDComparison(ctx, req); err != nil {
		return err
	}
	if _, err := e.sales.MTDStats(ctx, req); err != nil {
		return err
	}
	if _, err := e.sales.RegionalPerformance(ctx, req); err != nil {
		return err
	}
	if _, err := e.sales.CustomerAnalytics(ctx, req); err != nil {
		return err
	}
	if _, err := e.sales.PaymentModes(ctx, req); err != nil {
		return err
	}
	_, err := e.sales.AvailableMonths(ctx, unitID)
	return err
}

func (e *WarmUpExecutor) warmForecast(ctx context.Context, unitID *string) error {
	if _, err := e.forecast.Global(ctx, unitID); err != nil {
		return err
	}
	if _, err := e.forecast.Items(ctx, unitID, 0); err != nil {
		return err
	}
	_, err := e.forecast.Territories(ctx, unitID, 0)
	return err
}
