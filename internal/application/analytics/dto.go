package analytics

import (
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// ===================== Dimension Responses =====================

// DimensionRowResponse is one group of a dimension breakdown
type DimensionRowResponse struct {
	Key             string   `json:"key"`
	Quantity        float64  `json:"quantity"`
	OrderCount      int64    `json:"order_count"`
	Revenue         float64  `json:"revenue"`
	ContributionPct float64  `json:"contribution_pct"`
	MoMPct          *float64 `json:"mom_pct"`
	YoYPct          *float64 `json:"yoy_pct"`
}

// GrowthResponse compares one key across two windows
type GrowthResponse struct {
	Key          string   `json:"key"`
	CurrentValue float64  `json:"current_value"`
	PriorValue   float64  `json:"prior_value"`
	PctChange    *float64 `json:"pct_change"`
	AbsChange    float64  `json:"abs_change"`
}

// DimensionBreakdownResponse is an aggregate with ranking and growth
type DimensionBreakdownResponse struct {
	Dimension     analytics.Dimension    `json:"dimension"`
	Period        ResolvedPeriod         `json:"period"`
	TotalQuantity float64                `json:"total_quantity"`
	TotalRevenue  float64                `json:"total_revenue"`
	TotalOrders   int64                  `json:"total_orders"`
	Groups        []DimensionRowResponse `json:"groups"`
	Top           []DimensionRowResponse `json:"top"`
	Bottom        []DimensionRowResponse `json:"bottom"`
	MoM           []GrowthResponse       `json:"mom"`
	YoY           []GrowthResponse       `json:"yoy"`
}

// DimensionQuery selects a dimension breakdown
type DimensionQuery struct {
	Period    PeriodRequest
	Dimension analytics.Dimension
	TopN      int
	BottomN   int
}

// ===================== Sales Responses =====================

// TotalsGrowthResponse compares window totals against a prior window
type TotalsGrowthResponse struct {
	PriorQuantity float64  `json:"prior_quantity"`
	PriorOrders   int64    `json:"prior_orders"`
	PriorRevenue  float64  `json:"prior_revenue"`
	QuantityPct   *float64 `json:"quantity_pct"`
	OrdersPct     *float64 `json:"orders_pct"`
	RevenuePct    *float64 `json:"revenue_pct"`
}

// TrendPointResponse is one month of a sales trend
type TrendPointResponse struct {
	Month      string  `json:"month"`
	OrderCount int64   `json:"order_count"`
	Quantity   float64 `json:"quantity"`
}

// SalesMetricsResponse is the KPI card for one period
type SalesMetricsResponse struct {
	Period        ResolvedPeriod       `json:"period"`
	TotalOrders   int64                `json:"total_orders"`
	TotalQuantity float64              `json:"total_quantity"`
	TotalRevenue  float64              `json:"total_revenue"`
	UOM           string               `json:"uom"`
	MoM           TotalsGrowthResponse `json:"mom"`
	YoY           TotalsGrowthResponse `json:"yoy"`
	Trend         []TrendPointResponse `json:"trend"`
}

// WindowTotalsResponse sums one window
type WindowTotalsResponse struct {
	Window          analytics.Window `json:"window"`
	Days            int              `json:"days"`
	TotalOrders     int64            `json:"total_orders"`
	TotalQuantity   float64          `json:"total_quantity"`
	TotalRevenue    float64          `json:"total_revenue"`
	UniqueCustomers int              `json:"unique_customers"`
}

// ComparisonResponse compares a truncated window with its prior
type ComparisonResponse struct {
	Current WindowTotalsResponse `json:"current"`
	Prior   WindowTotalsResponse `json:"prior"`
	Growth  TotalsGrowthResponse `json:"growth"`
}

// ===================== Regional & Customer Responses =====================

// RegionalPerformanceResponse ranks territories and lists regions and areas
type RegionalPerformanceResponse struct {
	Period            ResolvedPeriod         `json:"period"`
	TopTerritories    []DimensionRowResponse `json:"top_territories"`
	BottomTerritories []DimensionRowResponse `json:"bottom_territories"`
	Regions           []DimensionRowResponse `json:"regions"`
	Areas             []DimensionRowResponse `json:"areas"`
}

// CustomerRowResponse is one ranked customer
type CustomerRowResponse struct {
	Rank            int     `json:"rank"`
	CustomerID      string  `json:"customer_id"`
	CustomerName    string  `json:"customer_name"`
	Quantity        float64 `json:"quantity"`
	OrderCount      int64   `json:"order_count"`
	Revenue         float64 `json:"revenue"`
	ContributionPct float64 `json:"contribution_pct"`
}

// CustomerAnalyticsResponse lists top customers and volume concentration.
// TopKCustomers are the customers counted in the concentration ratio.
type CustomerAnalyticsResponse struct {
	Period             ResolvedPeriod        `json:"period"`
	TopCustomers       []CustomerRowResponse `json:"top_customers"`
	TopKCustomers      []CustomerRowResponse `json:"top_k_customers"`
	TotalCustomers     int                   `json:"total_customers"`
	TotalQuantity      float64               `json:"total_quantity"`
	UOM                string                `json:"uom"`
	ConcentrationTopK  int                   `json:"concentration_top_k"`
	ConcentrationRatio float64               `json:"concentration_ratio"`
	ConcentrationPct   float64               `json:"concentration_pct"`
}

// ChannelRowResponse is one sales channel within a payment mode
type ChannelRowResponse struct {
	Channel    string  `json:"channel"`
	OrderCount int64   `json:"order_count"`
	Revenue    float64 `json:"revenue"`
	PctOfMode  float64 `json:"pct_of_mode"`
}

// PaymentModeRowResponse is the mix for one payment mode
type PaymentModeRowResponse struct {
	Mode       analytics.PaymentMode `json:"mode"`
	OrderCount int64                 `json:"order_count"`
	Revenue    float64               `json:"revenue"`
	Pct        float64               `json:"pct"`
	Channels   []ChannelRowResponse  `json:"channels"`
}

// PaymentModeResponse is the payment-mode mix for one period
type PaymentModeResponse struct {
	Period ResolvedPeriod           `json:"period"`
	Modes  []PaymentModeRowResponse `json:"modes"`
}

// ===================== RFM Responses =====================

// RFMResponse is a complete RFM analysis
type RFMResponse struct {
	Window         analytics.Window           `json:"window"`
	Customers      []analytics.RFMCustomer    `json:"customers"`
	SegmentSummary []analytics.SegmentSummary `json:"segment_summary"`
	Metadata       analytics.RFMMetadata      `json:"metadata"`
}

// RFMQuery selects an RFM analysis. StartDate and EndDate are inclusive
// calendar dates and take precedence over the period; either may be left
// zero to use the ledger's first or last date. With neither dates nor a
// year or month the whole ledger is analysed.
type RFMQuery struct {
	Period    PeriodRequest
	StartDate time.Time
	EndDate   time.Time
	Basis     analytics.MonetaryBasis
}

// ===================== Forecast Responses =====================

// Warning is a non-fatal problem reported alongside a result
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ForecastSeriesResponse is one merged actual/forecast series
type ForecastSeriesResponse struct {
	Key               string                    `json:"key"`
	Points            []analytics.ForecastPoint `json:"points"`
	ForecastAvailable bool                      `json:"forecast_available"`
	Warnings          []Warning                 `json:"warnings,omitempty"`
}

// Degraded reports whether the forecast side was unavailable
func (r *ForecastSeriesResponse) Degraded() bool { return !r.ForecastAvailable }

// ForecastCollectionResponse holds one merged series per dimension value
type ForecastCollectionResponse struct {
	Kind              analytics.ForecastKind               `json:"kind"`
	Series            map[string][]analytics.ForecastPoint `json:"series"`
	Keys              []string                             `json:"keys"`
	ForecastAvailable bool                                 `json:"forecast_available"`
	Warnings          []Warning                            `json:"warnings,omitempty"`
}

// Degraded reports whether the forecast side was unavailable
func (r *ForecastCollectionResponse) Degraded() bool { return !r.ForecastAvailable }

// InsightRequest asks for a narrated summary of one forecast series
type InsightRequest struct {
	UnitID *string                `json:"unit_id"`
	Kind   analytics.ForecastKind `json:"kind" binding:"required,oneof=global item territory"`
	Key    string                 `json:"key"`
}

// InsightResponse carries the narration for one forecast series
type InsightResponse struct {
	Kind    analytics.ForecastKind `json:"kind"`
	Key     string                 `json:"key"`
	Insight string                 `json:"insight"`
}

// ===================== Converters =====================

func toFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toDimensionRows(groups []analytics.DimensionAggregate, mom, yoy map[string]analytics.GrowthMetric) []DimensionRowResponse {
	rows := make([]DimensionRowResponse, len(groups))
	for i, g := range groups {
		rows[i] = DimensionRowResponse{
			Key:             g.Key,
			Quantity:        toFloat64(g.Quantity),
			OrderCount:      g.OrderCount,
			Revenue:         toFloat64(g.Revenue),
			ContributionPct: g.ContributionPct,
		}
		if m, ok := mom[g.Key]; ok {
			rows[i].MoMPct = m.PctChange
		}
		if m, ok := yoy[g.Key]; ok {
			rows[i].YoYPct = m.PctChange
		}
	}
	return rows
}

func toGrowthResponses(metrics []analytics.GrowthMetric) []GrowthResponse {
	out := make([]GrowthResponse, len(metrics))
	for i, m := range metrics {
		out[i] = GrowthResponse{
			Key:          m.Key,
			CurrentValue: toFloat64(m.CurrentValue),
			PriorValue:   toFloat64(m.PriorValue),
			PctChange:    m.PctChange,
			AbsChange:    toFloat64(m.AbsChange),
		}
	}
	return out
}

func toTrendResponses(points []analytics.TrendPoint) []TrendPointResponse {
	out := make([]TrendPointResponse, len(points))
	for i, p := range points {
		out[i] = TrendPointResponse{
			Month:      p.Month,
			OrderCount: p.OrderCount,
			Quantity:   toFloat64(p.Quantity),
		}
	}
	return out
}

func totalsGrowth(current, prior analytics.AggregateResult) TotalsGrowthResponse {
	return TotalsGrowthResponse{
		PriorQuantity: toFloat64(prior.TotalQuantity),
		PriorOrders:   prior.TotalOrders,
		PriorRevenue:  toFloat64(prior.TotalRevenue),
		QuantityPct:   GrowthPct(current.TotalQuantity, prior.TotalQuantity),
		OrdersPct:     GrowthPct(decimal.NewFromInt(current.TotalOrders), decimal.NewFromInt(prior.TotalOrders)),
		RevenuePct:    GrowthPct(current.TotalRevenue, prior.TotalRevenue),
	}
}
