package analytics

import (
	"sort"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type groupAccumulator struct {
	quantity decimal.Decimal
	revenue  decimal.Decimal
	orders   map[string]struct{}
}

// Aggregate groups the transactions that fall in window (and belong to
// unitID when given) by dim. Groups are ordered by key ascending and each
// carries its share of the window's total quantity.
func Aggregate(txns []analytics.Transaction, window analytics.Window, dim analytics.Dimension, unitID *string) analytics.AggregateResult {
	groups := make(map[string]*groupAccumulator)
	allOrders := make(map[string]struct{})
	total := decimal.Zero
	totalRevenue := decimal.Zero

	for _, t := range txns {
		if !window.Contains(t.Date) {
			continue
		}
		if unitID != nil && t.BusinessUnitID != *unitID {
			continue
		}

		key := t.Key(dim)
		acc, ok := groups[key]
		if !ok {
			acc = &groupAccumulator{orders: make(map[string]struct{})}
			groups[key] = acc
		}
		acc.quantity = acc.quantity.Add(t.Quantity)
		acc.revenue = acc.revenue.Add(t.Revenue)
		acc.orders[t.OrderID] = struct{}{}

		allOrders[t.OrderID] = struct{}{}
		total = total.Add(t.Quantity)
		totalRevenue = totalRevenue.Add(t.Revenue)
	}

	result := analytics.AggregateResult{
		Window:        window,
		Dimension:     dim,
		TotalQuantity: total,
		TotalRevenue:  totalRevenue,
		TotalOrders:   int64(len(allOrders)),
		Groups:        make([]analytics.DimensionAggregate, 0, len(groups)),
	}
	for key, acc := range groups {
		result.Groups = append(result.Groups, analytics.DimensionAggregate{
			Key:             key,
			Quantity:        acc.quantity,
			OrderCount:      int64(len(acc.orders)),
			Revenue:         acc.revenue,
			ContributionPct: sharePct(acc.quantity, total),
		})
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		return result.Groups[i].Key < result.Groups[j].Key
	})

	return result
}

// sharePct returns part/total*100, or 0 when total is zero
func sharePct(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(hundred).InexactFloat64()
}
