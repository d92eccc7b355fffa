package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Segment is a customer tier derived from RFM score bands
type Segment string

const (
	SegmentPlatinum   Segment = "Platinum"
	SegmentGold       Segment = "Gold"
	SegmentSilver     Segment = "Silver"
	SegmentOccasional Segment = "Occasional"
	SegmentInactive   Segment = "Inactive"
)

// AllSegments returns segments from best to worst
func AllSegments() []Segment {
	return []Segment{SegmentPlatinum, SegmentGold, SegmentSilver, SegmentOccasional, SegmentInactive}
}

// MonetaryBasis selects what the monetary axis sums
type MonetaryBasis string

const (
	BasisQuantity MonetaryBasis = "quantity"
	BasisRevenue  MonetaryBasis = "revenue"
)

// ParseMonetaryBasis validates a basis name; empty means quantity
func ParseMonetaryBasis(raw string) (MonetaryBasis, error) {
	switch MonetaryBasis(raw) {
	case "", BasisQuantity:
		return BasisQuantity, nil
	case BasisRevenue:
		return BasisRevenue, nil
	}
	return "", ErrInvalidBasis.WithMessage("unknown monetary basis: " + raw)
}

// Weights are the relative contributions of each RFM axis to the score
type Weights struct {
	Recency   float64 `json:"recency" mapstructure:"recency"`
	Frequency float64 `json:"frequency" mapstructure:"frequency"`
	Monetary  float64 `json:"monetary" mapstructure:"monetary"`
}

// EqualWeights weighs all three axes the same
func EqualWeights() Weights {
	return Weights{Recency: 1, Frequency: 1, Monetary: 1}
}

// LegacyWeights favours monetary value over frequency and recency
func LegacyWeights() Weights {
	return Weights{Recency: 0.25, Frequency: 0.30, Monetary: 0.45}
}

// Validate checks the weights can form a weighted average
func (w Weights) Validate() error {
	if w.Recency < 0 || w.Frequency < 0 || w.Monetary < 0 {
		return ErrInvalidWeights
	}
	if w.Sum() <= 0 {
		return ErrInvalidWeights
	}
	return nil
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.Recency + w.Frequency + w.Monetary
}

// BandConfig holds cumulative population cutoffs for segment assignment.
// Customers ranked by score descending fall into the first band whose
// cutoff exceeds their position share. Whatever remains is Inactive.
type BandConfig struct {
	Platinum   float64 `json:"platinum" mapstructure:"platinum"`
	Gold       float64 `json:"gold" mapstructure:"gold"`
	Silver     float64 `json:"silver" mapstructure:"silver"`
	Occasional float64 `json:"occasional" mapstructure:"occasional"`
}

// DefaultBands puts the top decile in Platinum
func DefaultBands() BandConfig {
	return BandConfig{
		Platinum:   0.10,
		Gold:       0.30,
		Silver:     0.60,
		Occasional: 0.85,
	}
}

// Validate checks the cutoffs are strictly increasing within (0, 1]
func (b BandConfig) Validate() error {
	edges := b.Edges()
	prev := 0.0
	for _, e := range edges {
		if e <= prev || e > 1 {
			return ErrInvalidBands
		}
		prev = e
	}
	return nil
}

// Edges returns the cutoffs in segment order
func (b BandConfig) Edges() []float64 {
	return []float64{b.Platinum, b.Gold, b.Silver, b.Occasional}
}

// RFMCustomer is one customer's RFM profile within an analysis window
type RFMCustomer struct {
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	RecencyDays   int             `json:"recency_days"`
	Frequency     int64           `json:"frequency"`
	Monetary      decimal.Decimal `json:"monetary"`
	Quantity      decimal.Decimal `json:"quantity"`
	Revenue       decimal.Decimal `json:"revenue"`
	LastOrderDate time.Time       `json:"last_order_date"`
	RRank         float64         `json:"r_rank"`
	FRank         float64         `json:"f_rank"`
	MRank         float64         `json:"m_rank"`
	RFMScore      float64         `json:"rfm_score"`
	Segment       Segment         `json:"segment"`
}

// SegmentSummary rolls up the customers of one segment.
// RevenuePct is the segment's share of total monetary value on the
// analysis basis.
type SegmentSummary struct {
	Segment       Segment         `json:"segment"`
	CustomerCount int             `json:"customer_count"`
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	AvgRFMScore   float64         `json:"avg_rfm_score"`
	CustomerPct   float64         `json:"customer_pct"`
	RevenuePct    float64         `json:"revenue_pct"`
}

// RFMResult is the output of one RFM analysis
type RFMResult struct {
	Customers      []RFMCustomer    `json:"customers"`
	SegmentSummary []SegmentSummary `json:"segment_summary"`
}

// RFMMetadata describes the population behind an RFM analysis
type RFMMetadata struct {
	TotalCustomers    int             `json:"total_customers"`
	TotalTransactions int             `json:"total_transactions"`
	TotalVolume       decimal.Decimal `json:"total_volume"`
	AnalysisDate      time.Time       `json:"analysis_date"`
	DataStart         *time.Time      `json:"data_start,omitempty"`
	DataEnd           *time.Time      `json:"data_end,omitempty"`
	Basis             MonetaryBasis   `json:"basis"`
}
