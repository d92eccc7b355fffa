package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Collaborator names reported to metrics
const (
	CollaboratorForecast  = "forecast"
	CollaboratorNarration = "narration"
)

// ForecastService merges historical actuals with published forecasts and
// narrates them on request
type ForecastService struct {
	repo      analytics.TransactionRepository
	source    analytics.ForecastSource
	narration narrationGateway
	opts      serviceOptions
}

// NewForecastService creates a new ForecastService. A nil narrator
// disables insights.
func NewForecastService(repo analytics.TransactionRepository, source analytics.ForecastSource, narrator analytics.Narrator, opts ...Option) *ForecastService {
	s := &ForecastService{
		repo:   repo,
		source: source,
		opts:   newServiceOptions(opts),
	}
	s.narration = narrationGateway{narrator: narrator, opts: &s.opts}
	return s
}

// Global returns the merged series for all items and territories
func (s *ForecastService) Global(ctx context.Context, unitID *string) (*ForecastSeriesResponse, error) {
	key := CacheKey(OpForecastGlobal, unitID)
	return cached(ctx, &s.opts, OpForecastGlobal, key, func(ctx context.Context) (*ForecastSeriesResponse, error) {
		return s.series(ctx, unitID, analytics.ForecastGlobal, analytics.GlobalSeriesKey)
	})
}

// Items returns one merged series per top item
func (s *ForecastService) Items(ctx context.Context, unitID *string, limit int) (*ForecastCollectionResponse, error) {
	return s.collection(ctx, OpForecastItems, unitID, analytics.ForecastItem, limit)
}

// Territories returns one merged series per top territory
func (s *ForecastService) Territories(ctx context.Context, unitID *string, limit int) (*ForecastCollectionResponse, error) {
	return s.collection(ctx, OpForecastTerritory, unitID, analytics.ForecastTerritory, limit)
}

// series merges the actual and forecast series for one key. A forecast
// failure degrades to the actual series with a warning.
func (s *ForecastService) series(ctx context.Context, unitID *string, kind analytics.ForecastKind, key string) (*ForecastSeriesResponse, error) {
	var values []string
	if kind != analytics.ForecastGlobal {
		values = []string{key}
	}

	actuals, err := s.actuals(ctx, unitID, kind, values)
	if err != nil {
		return nil, err
	}

	resp := &ForecastSeriesResponse{Key: key, ForecastAvailable: true}
	forecasts, err := s.source.ForecastSeries(ctx, analytics.ForecastQuery{UnitID: unitID, Kind: kind, Values: values})
	if err != nil {
		resp.ForecastAvailable = false
		resp.Warnings = []Warning{s.forecastWarning(ctx, kind, err)}
	}

	resp.Points = StitchTransition(MergeForecast(actuals[key], forecasts[key]))
	return resp, nil
}

func (s *ForecastService) collection(ctx context.Context, op string, unitID *string, kind analytics.ForecastKind, limit int) (*ForecastCollectionResponse, error) {
	if limit <= 0 || limit > s.opts.settings.ForecastTopLimit {
		limit = s.opts.settings.ForecastTopLimit
	}

	cacheKey := CacheKey(op, unitID, limit)
	return cached(ctx, &s.opts, op, cacheKey, func(ctx context.Context) (*ForecastCollectionResponse, error) {
		resp := &ForecastCollectionResponse{Kind: kind, ForecastAvailable: true}

		keys, err := s.source.TopForecastKeys(ctx, unitID, kind, limit)
		if err != nil {
			return s.actualOnlyCollection(ctx, resp, unitID, kind, limit, err)
		}

		var actuals, forecasts map[string][]analytics.MonthlyValue
		var forecastErr error
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			actuals, err = s.actuals(gctx, unitID, kind, keys)
			return err
		})
		g.Go(func() error {
			forecasts, forecastErr = s.source.ForecastSeries(gctx, analytics.ForecastQuery{UnitID: unitID, Kind: kind, Values: keys})
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if forecastErr != nil {
			return s.actualOnlyCollection(ctx, resp, unitID, kind, limit, forecastErr)
		}

		resp.Keys = keys
		resp.Series = make(map[string][]analytics.ForecastPoint, len(keys))
		for _, k := range keys {
			resp.Series[k] = StitchTransition(MergeForecast(actuals[k], forecasts[k]))
		}
		return resp, nil
	})
}

// actualOnlyCollection answers a collection from history alone, keeping the
// keys with the largest actual volume
func (s *ForecastService) actualOnlyCollection(ctx context.Context, resp *ForecastCollectionResponse, unitID *string, kind analytics.ForecastKind, limit int, cause error) (*ForecastCollectionResponse, error) {
	resp.ForecastAvailable = false
	resp.Warnings = []Warning{s.forecastWarning(ctx, kind, cause)}

	actuals, err := s.actuals(ctx, unitID, kind, nil)
	if err != nil {
		return nil, err
	}

	resp.Keys = topKeysByVolume(actuals, limit)
	resp.Series = make(map[string][]analytics.ForecastPoint, len(resp.Keys))
	for _, k := range resp.Keys {
		resp.Series[k] = MergeForecast(actuals[k], nil)
	}
	return resp, nil
}

func (s *ForecastService) forecastWarning(ctx context.Context, kind analytics.ForecastKind, err error) Warning {
	s.opts.metrics.RecordCollaboratorFailure(ctx, CollaboratorForecast)
	s.opts.logger.Warn("Forecast source unavailable, serving actuals only",
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	return Warning{
		Code:    analytics.ErrCollaboratorUnavailable.Code,
		Message: "forecast data is unavailable; showing actuals only",
	}
}

// actuals loads the monthly history of the ledger keyed like the forecast
func (s *ForecastService) actuals(ctx context.Context, unitID *string, kind analytics.ForecastKind, values []string) (map[string][]analytics.MonthlyValue, error) {
	span, err := s.repo.DataRange(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("load data range: %w", err)
	}
	if span.IsEmpty() {
		return map[string][]analytics.MonthlyValue{}, nil
	}

	series, err := s.repo.MonthlySeries(ctx, unitID, kind.Dimension(), values, span)
	if err != nil {
		return nil, fmt.Errorf("load monthly series: %w", err)
	}
	return series, nil
}

func topKeysByVolume(series map[string][]analytics.MonthlyValue, limit int) []string {
	type keyed struct {
		key    string
		volume decimal.Decimal
	}
	all := make([]keyed, 0, len(series))
	for k, v := range series {
		all = append(all, keyed{key: k, volume: totalQuantity(v)})
	}
	sort.Slice(all, func(i, j int) bool {
		if c := all[i].volume.Cmp(all[j].volume); c != 0 {
			return c > 0
		}
		return all[i].key < all[j].key
	})

	if len(all) > limit {
		all = all[:limit]
	}
	keys := make([]string, len(all))
	for i, k := range all {
		keys[i] = k.key
	}
	return keys
}

func totalQuantity(series []analytics.MonthlyValue) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range series {
		sum = sum.Add(v.Value)
	}
	return sum
}

// insightSummary is the structured input handed to the narrator
type insightSummary struct {
	Kind              analytics.ForecastKind    `json:"kind"`
	Key               string                    `json:"key"`
	UnitID            string                    `json:"unit_id"`
	HistoryMonths     int                       `json:"history_months"`
	ForecastMonths    int                       `json:"forecast_months"`
	LastActualMonth   string                    `json:"last_actual_month,omitempty"`
	LastActualValue   *float64                  `json:"last_actual_value,omitempty"`
	TrailingYearTotal float64                   `json:"trailing_year_total"`
	ForecastTotal     float64                   `json:"forecast_total"`
	ForecastAverage   float64                   `json:"forecast_average"`
	Points            []analytics.ForecastPoint `json:"points"`
}

// Insights narrates one merged forecast series. Both the forecast and the
// narration collaborator are required; either failing yields
// ErrCollaboratorUnavailable.
func (s *ForecastService) Insights(ctx context.Context, req InsightRequest) (*InsightResponse, error) {
	kind, err := analytics.ParseForecastKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	key := strings.TrimSpace(req.Key)
	if kind == analytics.ForecastGlobal {
		key = analytics.GlobalSeriesKey
	} else if key == "" {
		return nil, shared.ErrInvalidInput.WithMessage("key is required for item and territory insights")
	}
	if !s.narration.enabled() {
		return nil, analytics.ErrCollaboratorUnavailable.WithMessage("narration is disabled")
	}

	cacheKey := CacheKey(OpForecastInsight, req.UnitID, kind, key)
	return cached(ctx, &s.opts, OpForecastInsight, cacheKey, func(ctx context.Context) (*InsightResponse, error) {
		series, err := s.series(ctx, req.UnitID, kind, key)
		if err != nil {
			return nil, err
		}
		if !series.ForecastAvailable {
			return nil, analytics.ErrCollaboratorUnavailable.WithMessage("forecast data is unavailable")
		}

		text, err := s.narration.narrate(ctx, analytics.SummaryForecast, summarize(kind, key, req.UnitID, series.Points))
		if err != nil {
			return nil, err
		}
		return &InsightResponse{Kind: kind, Key: key, Insight: text}, nil
	})
}

func summarize(kind analytics.ForecastKind, key string, unitID *string, points []analytics.ForecastPoint) insightSummary {
	sum := insightSummary{Kind: kind, Key: key, UnitID: "all", Points: points}
	if unitID != nil {
		sum.UnitID = *unitID
	}

	var actuals []float64
	var forecastTotal float64
	for _, p := range points {
		if p.Actual != nil {
			sum.HistoryMonths++
			sum.LastActualMonth = p.Month
			v := *p.Actual
			sum.LastActualValue = &v
			actuals = append(actuals, v)
			continue
		}
		if p.Forecast != nil {
			sum.ForecastMonths++
			forecastTotal += *p.Forecast
		}
	}

	trailing := actuals
	if len(trailing) > 12 {
		trailing = trailing[len(trailing)-12:]
	}
	for _, v := range trailing {
		sum.TrailingYearTotal += v
	}
	sum.ForecastTotal = forecastTotal
	if sum.ForecastMonths > 0 {
		sum.ForecastAverage = forecastTotal / float64(sum.ForecastMonths)
	}
	return sum
}
