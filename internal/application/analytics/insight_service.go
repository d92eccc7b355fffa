package analytics

import (
	"context"

	"github.com/salesinsight/backend/internal/domain/analytics"
)

// OpSalesInsight caches narrated sales summaries
const OpSalesInsight = "sales_insight"

// NarrativeRequest asks for prose describing one sales summary of a period
type NarrativeRequest struct {
	Period PeriodRequest
	Kind   analytics.SummaryKind
}

// NarrativeResponse carries the narration of one sales summary
type NarrativeResponse struct {
	Kind    analytics.SummaryKind `json:"kind"`
	Period  ResolvedPeriod        `json:"period"`
	Insight string                `json:"insight"`
}

// SalesInsightService narrates customer concentration, credit exposure and
// regional results for a period. Forecast narration stays with
// ForecastService.
type SalesInsightService struct {
	sales     *SalesAnalyticsService
	narration narrationGateway
	opts      serviceOptions
}

// NewSalesInsightService creates a new SalesInsightService. A nil narrator
// disables narration.
func NewSalesInsightService(sales *SalesAnalyticsService, narrator analytics.Narrator, opts ...Option) *SalesInsightService {
	s := &SalesInsightService{sales: sales, opts: newServiceOptions(opts)}
	s.narration = narrationGateway{narrator: narrator, opts: &s.opts}
	return s
}

type concentrationSummary struct {
	UnitID             string                `json:"unit_id"`
	Window             string                `json:"window"`
	UOM                string                `json:"uom"`
	TotalCustomers     int                   `json:"total_customers"`
	TotalQuantity      float64               `json:"total_quantity"`
	TopK               int                   `json:"top_k"`
	ConcentrationPct   float64               `json:"concentration_pct"`
	TopKCustomers      []CustomerRowResponse `json:"top_k_customers"`
	LeadingCustomerPct float64               `json:"leading_customer_pct"`
}

type creditRatioSummary struct {
	UnitID       string                   `json:"unit_id"`
	Window       string                   `json:"window"`
	TotalRevenue float64                  `json:"total_revenue"`
	CreditPct    float64                  `json:"credit_pct"`
	CashPct      float64                  `json:"cash_pct"`
	Modes        []PaymentModeRowResponse `json:"modes"`
}

type regionalSummary struct {
	UnitID    string                 `json:"unit_id"`
	Window    string                 `json:"window"`
	Dimension analytics.Dimension    `json:"dimension"`
	Top       []DimensionRowResponse `json:"top"`
	Bottom    []DimensionRowResponse `json:"bottom,omitempty"`
}

// Narrate builds the summary named by the request kind and asks the
// narrator to describe it. Narration failures yield
// ErrCollaboratorUnavailable; an unknown kind yields ErrInvalidDimension.
func (s *SalesInsightService) Narrate(ctx context.Context, req NarrativeRequest) (*NarrativeResponse, error) {
	kind, err := analytics.ParseSummaryKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	if kind == analytics.SummaryForecast {
		return nil, analytics.ErrInvalidDimension.WithMessage("forecast insights are served by the forecast insight endpoint")
	}
	period, err := s.sales.Resolver().Resolve(req.Period)
	if err != nil {
		return nil, err
	}
	if !s.narration.enabled() {
		return nil, analytics.ErrCollaboratorUnavailable.WithMessage("narration is disabled")
	}

	key := CacheKey(OpSalesInsight, req.Period.UnitID, kind, period.Current, period.FiscalYear)
	return cached(ctx, &s.opts, OpSalesInsight, key, func(ctx context.Context) (*NarrativeResponse, error) {
		summary, err := s.summary(ctx, kind, req.Period, period)
		if err != nil {
			return nil, err
		}
		text, err := s.narration.narrate(ctx, kind, summary)
		if err != nil {
			return nil, err
		}
		return &NarrativeResponse{Kind: kind, Period: period, Insight: text}, nil
	})
}

func (s *SalesInsightService) summary(ctx context.Context, kind analytics.SummaryKind, req PeriodRequest, period ResolvedPeriod) (any, error) {
	unit := "all"
	if req.UnitID != nil {
		unit = *req.UnitID
	}
	window := period.Current.String()

	switch kind {
	case analytics.SummaryConcentration:
		c, err := s.sales.CustomerAnalytics(ctx, req)
		if err != nil {
			return nil, err
		}
		sum := concentrationSummary{
			UnitID:           unit,
			Window:           window,
			UOM:              c.UOM,
			TotalCustomers:   c.TotalCustomers,
			TotalQuantity:    c.TotalQuantity,
			TopK:             c.ConcentrationTopK,
			ConcentrationPct: c.ConcentrationPct,
			TopKCustomers:    c.TopKCustomers,
		}
		if len(c.TopKCustomers) > 0 {
			sum.LeadingCustomerPct = c.TopKCustomers[0].ContributionPct
		}
		return sum, nil

	case analytics.SummaryCreditRatio:
		p, err := s.sales.PaymentModes(ctx, req)
		if err != nil {
			return nil, err
		}
		sum := creditRatioSummary{UnitID: unit, Window: window, Modes: p.Modes}
		for _, m := range p.Modes {
			sum.TotalRevenue += m.Revenue
			switch m.Mode {
			case analytics.PaymentModeCredit:
				sum.CreditPct = m.Pct
			case analytics.PaymentModeCash:
				sum.CashPct = m.Pct
			}
		}
		return sum, nil

	default:
		r, err := s.sales.RegionalPerformance(ctx, req)
		if err != nil {
			return nil, err
		}
		sum := regionalSummary{UnitID: unit, Window: window}
		switch kind {
		case analytics.SummaryRegional:
			sum.Dimension, sum.Top = analytics.DimensionRegion, r.Regions
		case analytics.SummaryArea:
			sum.Dimension, sum.Top = analytics.DimensionArea, r.Areas
		default:
			sum.Dimension, sum.Top, sum.Bottom = analytics.DimensionTerritory, r.TopTerritories, r.BottomTerritories
		}
		return sum, nil
	}
}
