package analytics

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"golang.org/x/sync/errgroup"
)

// Operation names used for cache keys and metrics
const (
	OpDimensionBreakdown = "dimension_breakdown"
	OpSalesMetrics       = "sales_metrics"
	OpYTD                = "ytd_comparison"
	OpMTD                = "mtd_stats"
	OpRegional           = "regional_performance"
	OpCustomers          = "customer_analytics"
	OpPaymentModes       = "payment_modes"
	OpAvailableMonths    = "available_months"
	OpBusinessUnits      = "business_units"
	OpRFM                = "rfm_analysis"
	OpForecastGlobal     = "forecast_global"
	OpForecastItems      = "forecast_items"
	OpForecastTerritory  = "forecast_territories"
	OpForecastInsight    = "forecast_insight"
)

// SalesAnalyticsService answers period-comparable sales questions
type SalesAnalyticsService struct {
	repo     analytics.TransactionRepository
	resolver *PeriodResolver
	opts     serviceOptions
}

// NewSalesAnalyticsService creates a new SalesAnalyticsService
func NewSalesAnalyticsService(repo analytics.TransactionRepository, resolver *PeriodResolver, opts ...Option) *SalesAnalyticsService {
	return &SalesAnalyticsService{
		repo:     repo,
		resolver: resolver,
		opts:     newServiceOptions(opts),
	}
}

// Resolver returns the service's period resolver
func (s *SalesAnalyticsService) Resolver() *PeriodResolver {
	return s.resolver
}

// periodAggregates holds one dimension aggregated over a resolved period
type periodAggregates struct {
	current analytics.AggregateResult
	mom     analytics.AggregateResult
	yoy     analytics.AggregateResult
}

// loadWindows fetches the transactions of each window concurrently.
// Identical windows are fetched once.
func (s *SalesAnalyticsService) loadWindows(ctx context.Context, unitID *string, windows ...analytics.Window) ([][]analytics.Transaction, error) {
	out := make([][]analytics.Transaction, len(windows))
	first := make(map[string]int, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range windows {
		if _, dup := first[w.String()]; dup {
			continue
		}
		first[w.String()] = i
		g.Go(func() error {
			txns, err := s.repo.FetchTransactions(gctx, analytics.TransactionFilter{UnitID: unitID, Window: w})
			if err != nil {
				return fmt.Errorf("fetch transactions for %s: %w", w, err)
			}
			out[i] = txns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, w := range windows {
		if j := first[w.String()]; j != i {
			out[i] = out[j]
		}
	}
	return out, nil
}

// aggregatePeriod fetches the current, MoM and YoY windows and aggregates
// each requested dimension over them, fanning out one task per dimension
func (s *SalesAnalyticsService) aggregatePeriod(ctx context.Context, period ResolvedPeriod, unitID *string, dims ...analytics.Dimension) (map[analytics.Dimension]periodAggregates, []analytics.Transaction, error) {
	sets, err := s.loadWindows(ctx, unitID, period.Current, period.PriorMoM, period.PriorYoY)
	if err != nil {
		return nil, nil, err
	}

	results := make([]periodAggregates, len(dims))
	var g errgroup.Group
	g.SetLimit(s.opts.settings.MaxConcurrency)
	for i, dim := range dims {
		g.Go(func() error {
			results[i] = periodAggregates{
				current: Aggregate(sets[0], period.Current, dim, unitID),
				mom:     Aggregate(sets[1], period.PriorMoM, dim, unitID),
				yoy:     Aggregate(sets[2], period.PriorYoY, dim, unitID),
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[analytics.Dimension]periodAggregates, len(dims))
	for i, dim := range dims {
		out[dim] = results[i]
	}
	return out, sets[0], nil
}

// AggregateDimension aggregates one window by one dimension
func (s *SalesAnalyticsService) AggregateDimension(ctx context.Context, window analytics.Window, dim analytics.Dimension, unitID *string) (analytics.AggregateResult, error) {
	if _, err := analytics.ParseDimension(string(dim)); err != nil {
		return analytics.AggregateResult{}, err
	}
	txns, err := s.repo.FetchTransactions(ctx, analytics.TransactionFilter{UnitID: unitID, Window: window})
	if err != nil {
		return analytics.AggregateResult{}, fmt.Errorf("fetch transactions for %s: %w", window, err)
	}
	return Aggregate(txns, window, dim, unitID), nil
}

// DimensionBreakdown aggregates one dimension over a period with its
// ranking and MoM and YoY growth
func (s *SalesAnalyticsService) DimensionBreakdown(ctx context.Context, q DimensionQuery) (*DimensionBreakdownResponse, error) {
	dim, err := analytics.ParseDimension(string(q.Dimension))
	if err != nil {
		return nil, err
	}
	period, err := s.resolver.Resolve(q.Period)
	if err != nil {
		return nil, err
	}

	topN := q.TopN
	if topN <= 0 {
		topN = s.defaultTopN(dim)
	}
	bottomN := q.BottomN
	if bottomN <= 0 {
		bottomN = topN
	}

	key := CacheKey(OpDimensionBreakdown, q.Period.UnitID, period.Current, period.FiscalYear, dim, topN, bottomN)
	return cached(ctx, &s.opts, OpDimensionBreakdown, key, func(ctx context.Context) (*DimensionBreakdownResponse, error) {
		aggs, _, err := s.aggregatePeriod(ctx, period, q.Period.UnitID, dim)
		if err != nil {
			return nil, err
		}
		a := aggs[dim]

		momMetrics := ComputeGrowth(a.current.Groups, a.mom.Groups)
		yoyMetrics := ComputeGrowth(a.current.Groups, a.yoy.Groups)
		momByKey, yoyByKey := GrowthByKey(momMetrics), GrowthByKey(yoyMetrics)
		view := Rank(a.current.Groups, topN, bottomN)

		return &DimensionBreakdownResponse{
			Dimension:     dim,
			Period:        period,
			TotalQuantity: toFloat64(a.current.TotalQuantity),
			TotalRevenue:  toFloat64(a.current.TotalRevenue),
			TotalOrders:   a.current.TotalOrders,
			Groups:        toDimensionRows(a.current.Groups, momByKey, yoyByKey),
			Top:           toDimensionRows(view.Top, momByKey, yoyByKey),
			Bottom:        toDimensionRows(view.Bottom, momByKey, yoyByKey),
			MoM:           toGrowthResponses(momMetrics),
			YoY:           toGrowthResponses(yoyMetrics),
		}, nil
	})
}

func (s *SalesAnalyticsService) defaultTopN(dim analytics.Dimension) int {
	if dim == analytics.DimensionCustomer {
		return s.opts.settings.CustomerTopN
	}
	return s.opts.settings.DefaultTopN
}

// SalesMetrics returns the KPI card for a period with totals growth and a
// zero-filled monthly trend ending with the period
func (s *SalesAnalyticsService) SalesMetrics(ctx context.Context, req PeriodRequest) (*SalesMetricsResponse, error) {
	period, err := s.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	key := CacheKey(OpSalesMetrics, req.UnitID, period.Current, period.FiscalYear)
	return cached(ctx, &s.opts, OpSalesMetrics, key, func(ctx context.Context) (*SalesMetricsResponse, error) {
		trendWindow := TrailingMonths(period.Current.LastDay(), s.opts.settings.TrendMonths)

		var (
			aggs    map[analytics.Dimension]periodAggregates
			current []analytics.Transaction
			trend   []analytics.TrendPoint
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			aggs, current, err = s.aggregatePeriod(gctx, period, req.UnitID, analytics.DimensionRegion)
			return err
		})
		g.Go(func() error {
			var err error
			trend, err = s.repo.MonthlyTotals(gctx, req.UnitID, trendWindow)
			if err != nil {
				return fmt.Errorf("load monthly totals: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		a := aggs[analytics.DimensionRegion]
		return &SalesMetricsResponse{
			Period:        period,
			TotalOrders:   a.current.TotalOrders,
			TotalQuantity: toFloat64(a.current.TotalQuantity),
			TotalRevenue:  toFloat64(a.current.TotalRevenue),
			UOM:           unitOfMeasure(current, period.Current, req.UnitID),
			MoM:           totalsGrowth(a.current, a.mom),
			YoY:           totalsGrowth(a.current, a.yoy),
			Trend:         toTrendResponses(ZeroFillTrend(trend, trendWindow)),
		}, nil
	})
}

// MixedUOMLabel is reported when a window sums more than one unit of measure
const MixedUOMLabel = "Mixed"

// unitOfMeasure returns the display UOM shared by the window's
// transactions. Quantities arrive normalized by the ledger's UOM policy, so
// more than one label means some units have no conversion rule.
func unitOfMeasure(txns []analytics.Transaction, window analytics.Window, unitID *string) string {
	uom := ""
	for _, t := range txns {
		if !window.Contains(t.Date) || (unitID != nil && t.BusinessUnitID != *unitID) {
			continue
		}
		label := t.UOM
		if label == "" {
			label = analytics.DefaultUOMLabel
		}
		switch uom {
		case "":
			uom = label
		case label:
		default:
			return MixedUOMLabel
		}
	}
	return uom
}

// YTDComparison compares year-to-date totals with the same number of days
// of the prior year. Today is included.
func (s *SalesAnalyticsService) YTDComparison(ctx context.Context, req PeriodRequest) (*ComparisonResponse, error) {
	pair, err := s.resolver.YearToDate(req, s.resolver.Today().AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	key := CacheKey(OpYTD, req.UnitID, pair.Current, pair.Prior)
	return cached(ctx, &s.opts, OpYTD, key, func(ctx context.Context) (*ComparisonResponse, error) {
		return s.compareWindows(ctx, pair, req.UnitID)
	})
}

// MTDStats compares month-to-date totals with the same number of days of
// the previous month. Today is included.
func (s *SalesAnalyticsService) MTDStats(ctx context.Context, req PeriodRequest) (*ComparisonResponse, error) {
	pair, err := s.resolver.MonthToDate(req, s.resolver.Today().AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	key := CacheKey(OpMTD, req.UnitID, pair.Current, pair.Prior)
	return cached(ctx, &s.opts, OpMTD, key, func(ctx context.Context) (*ComparisonResponse, error) {
		return s.compareWindows(ctx, pair, req.UnitID)
	})
}

func (s *SalesAnalyticsService) compareWindows(ctx context.Context, pair WindowPair, unitID *string) (*ComparisonResponse, error) {
	sets, err := s.loadWindows(ctx, unitID, pair.Current, pair.Prior)
	if err != nil {
		return nil, err
	}
	current := Aggregate(sets[0], pair.Current, analytics.DimensionCustomer, unitID)
	prior := Aggregate(sets[1], pair.Prior, analytics.DimensionCustomer, unitID)

	return &ComparisonResponse{
		Current: windowTotals(current),
		Prior:   windowTotals(prior),
		Growth:  totalsGrowth(current, prior),
	}, nil
}

func windowTotals(r analytics.AggregateResult) WindowTotalsResponse {
	return WindowTotalsResponse{
		Window:          r.Window,
		Days:            r.Window.Days(),
		TotalOrders:     r.TotalOrders,
		TotalQuantity:   toFloat64(r.TotalQuantity),
		TotalRevenue:    toFloat64(r.TotalRevenue),
		UniqueCustomers: len(r.Groups),
	}
}

// RegionalPerformance ranks territories with MoM and YoY growth and lists
// regions and areas by volume
func (s *SalesAnalyticsService) RegionalPerformance(ctx context.Context, req PeriodRequest) (*RegionalPerformanceResponse, error) {
	period, err := s.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	key := CacheKey(OpRegional, req.UnitID, period.Current, period.FiscalYear)
	return cached(ctx, &s.opts, OpRegional, key, func(ctx context.Context) (*RegionalPerformanceResponse, error) {
		aggs, _, err := s.aggregatePeriod(ctx, period, req.UnitID,
			analytics.DimensionTerritory, analytics.DimensionRegion, analytics.DimensionArea)
		if err != nil {
			return nil, err
		}

		rows := func(dim analytics.Dimension, groups []analytics.DimensionAggregate) []DimensionRowResponse {
			a := aggs[dim]
			mom := GrowthByKey(ComputeGrowth(a.current.Groups, a.mom.Groups))
			yoy := GrowthByKey(ComputeGrowth(a.current.Groups, a.yoy.Groups))
			return toDimensionRows(groups, mom, yoy)
		}

		n := s.opts.settings.DefaultTopN
		territories := Rank(aggs[analytics.DimensionTerritory].current.Groups, n, n)
		return &RegionalPerformanceResponse{
			Period:            period,
			TopTerritories:    rows(analytics.DimensionTerritory, territories.Top),
			BottomTerritories: rows(analytics.DimensionTerritory, territories.Bottom),
			Regions:           rows(analytics.DimensionRegion, SortByQuantityDesc(aggs[analytics.DimensionRegion].current.Groups)),
			Areas:             rows(analytics.DimensionArea, SortByQuantityDesc(aggs[analytics.DimensionArea].current.Groups)),
		}, nil
	})
}

// CustomerAnalytics lists the top customers of a period and the share of
// volume held by the top-K
func (s *SalesAnalyticsService) CustomerAnalytics(ctx context.Context, req PeriodRequest) (*CustomerAnalyticsResponse, error) {
	period, err := s.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	key := CacheKey(OpCustomers, req.UnitID, period.Current, period.FiscalYear)
	return cached(ctx, &s.opts, OpCustomers, key, func(ctx context.Context) (*CustomerAnalyticsResponse, error) {
		sets, err := s.loadWindows(ctx, req.UnitID, period.Current)
		if err != nil {
			return nil, err
		}
		result := Aggregate(sets[0], period.Current, analytics.DimensionCustomer, req.UnitID)
		names := customerNames(sets[0])

		top := Rank(result.Groups, s.opts.settings.CustomerTopN, 0).Top
		conc := Concentration(result.Groups, s.opts.settings.ConcentrationTopK)

		return &CustomerAnalyticsResponse{
			Period:             period,
			TopCustomers:       customerRows(top, names),
			TopKCustomers:      customerRows(conc.TopK, names),
			TotalCustomers:     len(result.Groups),
			TotalQuantity:      toFloat64(result.TotalQuantity),
			UOM:                unitOfMeasure(sets[0], period.Current, req.UnitID),
			ConcentrationTopK:  s.opts.settings.ConcentrationTopK,
			ConcentrationRatio: conc.Ratio,
			ConcentrationPct:   conc.Ratio * 100,
		}, nil
	})
}

// customerRows numbers ranked customer groups from 1
func customerRows(groups []analytics.DimensionAggregate, names map[string]string) []CustomerRowResponse {
	rows := make([]CustomerRowResponse, len(groups))
	for i, g := range groups {
		rows[i] = CustomerRowResponse{
			Rank:            i + 1,
			CustomerID:      g.Key,
			CustomerName:    names[g.Key],
			Quantity:        toFloat64(g.Quantity),
			OrderCount:      g.OrderCount,
			Revenue:         toFloat64(g.Revenue),
			ContributionPct: g.ContributionPct,
		}
	}
	return rows
}

// customerNames picks one display name per customer ID, preferring the
// lexicographically smallest non-empty name
func customerNames(txns []analytics.Transaction) map[string]string {
	names := make(map[string]string)
	for _, t := range txns {
		id := t.Key(analytics.DimensionCustomer)
		if t.CustomerName == "" {
			continue
		}
		if cur, ok := names[id]; !ok || t.CustomerName < cur {
			names[id] = t.CustomerName
		}
	}
	return names
}

// PaymentModes returns the payment-mode revenue mix for a period, split by
// sales channel within each mode
func (s *SalesAnalyticsService) PaymentModes(ctx context.Context, req PeriodRequest) (*PaymentModeResponse, error) {
	period, err := s.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	key := CacheKey(OpPaymentModes, req.UnitID, period.Current, period.FiscalYear)
	return cached(ctx, &s.opts, OpPaymentModes, key, func(ctx context.Context) (*PaymentModeResponse, error) {
		totals, err := s.repo.PaymentModeTotals(ctx, req.UnitID, period.Current)
		if err != nil {
			return nil, fmt.Errorf("load payment mode totals: %w", err)
		}
		mix := PaymentModeMix(totals)
		rows := make([]PaymentModeRowResponse, len(mix))
		for i, m := range mix {
			rows[i] = PaymentModeRowResponse{
				Mode:       m.Mode,
				OrderCount: m.OrderCount,
				Revenue:    toFloat64(m.Revenue),
				Pct:        m.Pct,
				Channels:   make([]ChannelRowResponse, len(m.Channels)),
			}
			for j, ch := range m.Channels {
				rows[i].Channels[j] = ChannelRowResponse{
					Channel:    ch.Channel,
					OrderCount: ch.OrderCount,
					Revenue:    toFloat64(ch.Revenue),
					PctOfMode:  ch.PctOfMode,
				}
			}
		}
		return &PaymentModeResponse{Period: period, Modes: rows}, nil
	})
}

// AvailableMonths lists the months with sales, newest first
func (s *SalesAnalyticsService) AvailableMonths(ctx context.Context, unitID *string) ([]string, error) {
	key := CacheKey(OpAvailableMonths, unitID)
	return cached(ctx, &s.opts, OpAvailableMonths, key, func(ctx context.Context) ([]string, error) {
		months, err := s.repo.AvailableMonths(ctx, unitID)
		if err != nil {
			return nil, fmt.Errorf("load available months: %w", err)
		}
		months = slices.Clone(months)
		sort.Sort(sort.Reverse(sort.StringSlice(months)))
		return months, nil
	})
}

// BusinessUnits lists the business units present in the ledger
func (s *SalesAnalyticsService) BusinessUnits(ctx context.Context) ([]analytics.BusinessUnit, error) {
	key := CacheKey(OpBusinessUnits, nil)
	return cached(ctx, &s.opts, OpBusinessUnits, key, func(ctx context.Context) ([]analytics.BusinessUnit, error) {
		units, err := s.repo.ListBusinessUnits(ctx)
		if err != nil {
			return nil, fmt.Errorf("list business units: %w", err)
		}
		if units == nil {
			units = []analytics.BusinessUnit{}
		}
		return units, nil
	})
}

// ListUnitIDs returns the IDs of every business unit
func (s *SalesAnalyticsService) ListUnitIDs(ctx context.Context) ([]string, error) {
	units, err := s.repo.ListBusinessUnits(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.UnitID
	}
	return ids, nil
}

