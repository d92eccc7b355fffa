package analytics

import "github.com/shopspring/decimal"

// DimensionAggregate holds per-group totals for one window
type DimensionAggregate struct {
	Key             string          `json:"key"`
	Quantity        decimal.Decimal `json:"quantity"`
	OrderCount      int64           `json:"order_count"`
	Revenue         decimal.Decimal `json:"revenue"`
	ContributionPct float64         `json:"contribution_pct"`
}

// AggregateResult is the output of aggregating one window by one dimension.
// Groups are ordered by key ascending.
type AggregateResult struct {
	Window        Window               `json:"window"`
	Dimension     Dimension            `json:"dimension"`
	TotalQuantity decimal.Decimal      `json:"total_quantity"`
	TotalRevenue  decimal.Decimal      `json:"total_revenue"`
	TotalOrders   int64                `json:"total_orders"`
	Groups        []DimensionAggregate `json:"groups"`
}

// IsEmpty reports whether the window had no transactions
func (r AggregateResult) IsEmpty() bool {
	return len(r.Groups) == 0
}

// GrowthMetric compares one key across two windows.
// PctChange is nil whenever the prior value is zero.
type GrowthMetric struct {
	Key          string          `json:"key"`
	CurrentValue decimal.Decimal `json:"current_value"`
	PriorValue   decimal.Decimal `json:"prior_value"`
	PctChange    *float64        `json:"pct_change"`
	AbsChange    decimal.Decimal `json:"abs_change"`
}

// RankedView is a top/bottom slice of a single descending ordering
type RankedView struct {
	Top    []DimensionAggregate `json:"top"`
	Bottom []DimensionAggregate `json:"bottom"`
}

// ConcentrationResult describes how much volume the top-K groups hold
type ConcentrationResult struct {
	Ratio         float64              `json:"ratio"`
	TopK          []DimensionAggregate `json:"top_k"`
	TotalQuantity decimal.Decimal      `json:"total_quantity"`
}

// TrendPoint is one month of a sales trend
type TrendPoint struct {
	Month      string          `json:"month"`
	OrderCount int64           `json:"order_count"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// PaymentModeShare is the revenue mix for one payment mode. Rows read from
// the ledger carry the sales channel; folded rows list it under Channels.
type PaymentModeShare struct {
	Mode       PaymentMode     `json:"mode"`
	Channel    string          `json:"channel,omitempty"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	Pct        float64         `json:"pct"`
	Channels   []ChannelShare  `json:"channels,omitempty"`
}

// ChannelShare is one sales channel's revenue within a payment mode
type ChannelShare struct {
	Channel    string          `json:"channel"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	PctOfMode  float64         `json:"pct_of_mode"`
}
