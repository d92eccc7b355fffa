package analytics

import (
	"sort"
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// bandEpsilon absorbs float error when comparing positions to band cutoffs
const bandEpsilon = 1e-9

// RFMOptions configures one RFM analysis
type RFMOptions struct {
	Basis   analytics.MonetaryBasis
	Weights analytics.Weights
	Bands   analytics.BandConfig
	// AnalysisDate is the reference date for recency.
	// Zero means the last day covered by the window.
	AnalysisDate time.Time
}

// DefaultRFMOptions uses the quantity basis, equal weights and default bands
func DefaultRFMOptions() RFMOptions {
	return RFMOptions{
		Basis:   analytics.BasisQuantity,
		Weights: analytics.EqualWeights(),
		Bands:   analytics.DefaultBands(),
	}
}

// Validate checks basis, weights and bands
func (o RFMOptions) Validate() error {
	if _, err := analytics.ParseMonetaryBasis(string(o.Basis)); err != nil {
		return err
	}
	if err := o.Weights.Validate(); err != nil {
		return err
	}
	return o.Bands.Validate()
}

type customerAccumulator struct {
	id       string
	name     string
	last     time.Time
	orders   map[string]struct{}
	quantity decimal.Decimal
	revenue  decimal.Decimal
}

// AnalyzeRFM scores every customer with at least one transaction in window
// and assigns a segment by percentile band. The result is independent of
// input order. An empty population yields empty customers and summary.
func AnalyzeRFM(txns []analytics.Transaction, window analytics.Window, opts RFMOptions) (analytics.RFMResult, error) {
	if err := opts.Validate(); err != nil {
		return analytics.RFMResult{}, err
	}
	if opts.Basis == "" {
		opts.Basis = analytics.BasisQuantity
	}

	analysisDate := analytics.Date(opts.AnalysisDate)
	if opts.AnalysisDate.IsZero() {
		analysisDate = window.LastDay()
	}

	customers := extractCustomers(txns, window, opts.Basis, analysisDate)
	if len(customers) == 0 {
		return analytics.RFMResult{
			Customers:      []analytics.RFMCustomer{},
			SegmentSummary: []analytics.SegmentSummary{},
		}, nil
	}

	normalizeRanks(customers)
	for i := range customers {
		customers[i].RFMScore = score(customers[i], opts.Weights)
	}
	assignSegments(customers, opts.Bands)

	return analytics.RFMResult{
		Customers:      customers,
		SegmentSummary: SummarizeSegments(customers),
	}, nil
}

func extractCustomers(txns []analytics.Transaction, window analytics.Window, basis analytics.MonetaryBasis, analysisDate time.Time) []analytics.RFMCustomer {
	accs := make(map[string]*customerAccumulator)
	for _, t := range txns {
		if !window.Contains(t.Date) {
			continue
		}
		id := t.Key(analytics.DimensionCustomer)
		acc, ok := accs[id]
		if !ok {
			acc = &customerAccumulator{id: id, orders: make(map[string]struct{})}
			accs[id] = acc
		}
		d := analytics.Date(t.Date)
		switch {
		case d.After(acc.last):
			acc.last = d
			acc.name = t.CustomerName
		case d.Equal(acc.last) && t.CustomerName != "" && (acc.name == "" || t.CustomerName < acc.name):
			acc.name = t.CustomerName
		}
		acc.orders[t.OrderID] = struct{}{}
		acc.quantity = acc.quantity.Add(t.Quantity)
		acc.revenue = acc.revenue.Add(t.Revenue)
	}

	customers := make([]analytics.RFMCustomer, 0, len(accs))
	for _, acc := range accs {
		monetary := acc.quantity
		if basis == analytics.BasisRevenue {
			monetary = acc.revenue
		}
		recency := int(analysisDate.Sub(acc.last).Hours() / 24)
		if recency < 0 {
			recency = 0
		}
		customers = append(customers, analytics.RFMCustomer{
			CustomerID:    acc.id,
			CustomerName:  acc.name,
			RecencyDays:   recency,
			Frequency:     int64(len(acc.orders)),
			Monetary:      monetary,
			Quantity:      acc.quantity,
			Revenue:       acc.revenue,
			LastOrderDate: acc.last,
		})
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].CustomerID < customers[j].CustomerID
	})
	return customers
}

// normalizeRanks sets RRank, FRank and MRank to (rank-1)/(n-1), where the
// best value on each axis holds rank n. Ties share their average rank.
// A single customer scores 1.0 on every axis.
func normalizeRanks(customers []analytics.RFMCustomer) {
	n := len(customers)
	if n == 1 {
		customers[0].RRank, customers[0].FRank, customers[0].MRank = 1, 1, 1
		return
	}

	// Each comparison returns a negative value when a is worse than b.
	recency := averageRanks(n, func(a, b int) int {
		return customers[b].RecencyDays - customers[a].RecencyDays
	})
	frequency := averageRanks(n, func(a, b int) int {
		switch {
		case customers[a].Frequency < customers[b].Frequency:
			return -1
		case customers[a].Frequency > customers[b].Frequency:
			return 1
		}
		return 0
	})
	monetary := averageRanks(n, func(a, b int) int {
		return customers[a].Monetary.Cmp(customers[b].Monetary)
	})

	denom := float64(n - 1)
	for i := range customers {
		customers[i].RRank = (recency[i] - 1) / denom
		customers[i].FRank = (frequency[i] - 1) / denom
		customers[i].MRank = (monetary[i] - 1) / denom
	}
}

// averageRanks returns the 1-based ascending rank of each index under cmp,
// with tied indexes sharing the mean of the positions they span.
func averageRanks(n int, cmp func(a, b int) int) []float64 {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return cmp(order[i], order[j]) < 0
	})

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start + 1
		for end < n && cmp(order[start], order[end]) == 0 {
			end++
		}
		// positions start+1 .. end share their mean
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			ranks[order[k]] = avg
		}
		start = end
	}
	return ranks
}

func score(c analytics.RFMCustomer, w analytics.Weights) float64 {
	weighted := w.Recency*c.RRank + w.Frequency*c.FRank + w.Monetary*c.MRank
	return 100 * weighted / w.Sum()
}

// assignSegments places each customer by the share of the population that
// scores strictly higher, so equal scores always land in the same segment.
func assignSegments(customers []analytics.RFMCustomer, bands analytics.BandConfig) {
	n := len(customers)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := customers[order[i]], customers[order[j]]
		if a.RFMScore != b.RFMScore {
			return a.RFMScore > b.RFMScore
		}
		return a.CustomerID < b.CustomerID
	})

	edges := bands.Edges()
	segments := analytics.AllSegments()
	better := 0
	for pos, idx := range order {
		if pos > 0 && customers[order[pos-1]].RFMScore != customers[idx].RFMScore {
			better = pos
		}
		seg := analytics.SegmentInactive
		for b, edge := range edges {
			if float64(better) < edge*float64(n)-bandEpsilon {
				seg = segments[b]
				break
			}
		}
		customers[idx].Segment = seg
	}
}

// SummarizeSegments rolls customers up per segment, in segment order.
// Only segments with at least one customer are returned.
func SummarizeSegments(customers []analytics.RFMCustomer) []analytics.SegmentSummary {
	if len(customers) == 0 {
		return []analytics.SegmentSummary{}
	}

	type rollup struct {
		summary  analytics.SegmentSummary
		monetary decimal.Decimal
		scoreSum float64
	}
	bySegment := make(map[analytics.Segment]*rollup)
	totalMonetary := decimal.Zero
	for _, c := range customers {
		r, ok := bySegment[c.Segment]
		if !ok {
			r = &rollup{summary: analytics.SegmentSummary{Segment: c.Segment}}
			bySegment[c.Segment] = r
		}
		r.summary.CustomerCount++
		r.summary.TotalOrders += c.Frequency
		r.summary.TotalRevenue = r.summary.TotalRevenue.Add(c.Revenue)
		r.summary.TotalQuantity = r.summary.TotalQuantity.Add(c.Quantity)
		r.monetary = r.monetary.Add(c.Monetary)
		r.scoreSum += c.RFMScore
		totalMonetary = totalMonetary.Add(c.Monetary)
	}

	n := float64(len(customers))
	out := make([]analytics.SegmentSummary, 0, len(bySegment))
	for _, seg := range analytics.AllSegments() {
		r, ok := bySegment[seg]
		if !ok {
			continue
		}
		s := r.summary
		s.AvgRFMScore = r.scoreSum / float64(s.CustomerCount)
		s.CustomerPct = float64(s.CustomerCount) / n * 100
		s.RevenuePct = sharePct(r.monetary, totalMonetary)
		out = append(out, s)
	}
	return out
}

// BuildRFMMetadata describes the population behind an analysis
func BuildRFMMetadata(txns []analytics.Transaction, window analytics.Window, basis analytics.MonetaryBasis, result analytics.RFMResult, analysisDate time.Time) analytics.RFMMetadata {
	meta := analytics.RFMMetadata{
		TotalCustomers: len(result.Customers),
		TotalVolume:    decimal.Zero,
		AnalysisDate:   analysisDate,
		Basis:          basis,
	}
	for _, t := range txns {
		if !window.Contains(t.Date) {
			continue
		}
		meta.TotalTransactions++
		meta.TotalVolume = meta.TotalVolume.Add(t.Quantity)

		d := analytics.Date(t.Date)
		if meta.DataStart == nil || d.Before(*meta.DataStart) {
			start := d
			meta.DataStart = &start
		}
		if meta.DataEnd == nil || d.After(*meta.DataEnd) {
			end := d
			meta.DataEnd = &end
		}
	}
	return meta
}
