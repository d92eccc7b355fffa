package persistence

import (
	"context"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/infrastructure/persistence/models"
	"github.com/salesinsight/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormForecastSource reads the forecasting pipeline's published output from
// the forecast_monthly table. Failures surface as ErrCollaboratorUnavailable.
type GormForecastSource struct {
	db *gorm.DB
}

// NewGormForecastSource creates a new GormForecastSource
func NewGormForecastSource(db *gorm.DB) *GormForecastSource {
	return &GormForecastSource{db: db}
}

func (s *GormForecastSource) published(ctx context.Context, unitID *string, kind analytics.ForecastKind) *gorm.DB {
	q := s.db.WithContext(ctx).
		Model(&models.ForecastMonthlyModel{}).
		Where("type = ? AND kind = ?", models.ForecastRowForecasted, string(kind))
	if unitID != nil {
		q = q.Where("business_unit_id = ?", *unitID)
	}
	return q
}

// ForecastSeries returns forecast quantity per series key and month.
// Global forecasts are summed across units under analytics.GlobalSeriesKey.
func (s *GormForecastSource) ForecastSeries(ctx context.Context, query analytics.ForecastQuery) (map[string][]analytics.MonthlyValue, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "forecast_source", "series",
		telemetry.WithAttribute(telemetry.SpanAttrDimension, string(query.Kind)),
	)
	defer span.End()

	type seriesResult struct {
		SeriesKey string
		Month     string
		Quantity  decimal.Decimal
	}

	month := monthExpr(s.db, "month_start")
	q := s.published(ctx, query.UnitID, query.Kind)
	var results []seriesResult
	var err error
	if query.Kind == analytics.ForecastGlobal {
		err = q.Select("'" + analytics.GlobalSeriesKey + "' AS series_key, " + month + " AS month, COALESCE(SUM(quantity), 0) AS quantity").
			Group(month).
			Order("month ASC").
			Scan(&results).Error
	} else {
		if len(query.Values) > 0 {
			q = q.Where("series_key IN ?", query.Values)
		}
		err = q.Select("series_key, " + month + " AS month, COALESCE(SUM(quantity), 0) AS quantity").
			Group("series_key, " + month).
			Order("month ASC").
			Scan(&results).Error
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, analytics.ErrCollaboratorUnavailable.WithMessage("forecast series query failed").Wrap(err)
	}

	series := make(map[string][]analytics.MonthlyValue)
	for _, res := range results {
		series[res.SeriesKey] = append(series[res.SeriesKey], analytics.MonthlyValue{Month: res.Month, Value: res.Quantity})
	}
	telemetry.SetAttributes(span, "series", len(series))
	return series, nil
}

// TopForecastKeys returns up to limit series keys ordered by total forecast
// quantity, largest first. Ties break on the key.
func (s *GormForecastSource) TopForecastKeys(ctx context.Context, unitID *string, kind analytics.ForecastKind, limit int) ([]string, error) {
	if kind == analytics.ForecastGlobal {
		return []string{analytics.GlobalSeriesKey}, nil
	}
	if limit <= 0 {
		return []string{}, nil
	}

	var results []struct {
		SeriesKey string
		Total     decimal.Decimal
	}
	err := s.published(ctx, unitID, kind).
		Select("series_key, COALESCE(SUM(quantity), 0) AS total").
		Group("series_key").
		Order("total DESC, series_key ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, analytics.ErrCollaboratorUnavailable.WithMessage("forecast key query failed").Wrap(err)
	}

	keys := make([]string, len(results))
	for i, res := range results {
		keys[i] = res.SeriesKey
	}
	return keys, nil
}
