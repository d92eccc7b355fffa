package analytics

import (
	"sort"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// GrowthPct returns (current-prior)/prior*100, or nil when prior is zero.
// Undefined growth is never reported as 0 or infinity.
func GrowthPct(current, prior decimal.Decimal) *float64 {
	if prior.IsZero() {
		return nil
	}
	pct := current.Sub(prior).Div(prior).Mul(hundred).InexactFloat64()
	return &pct
}

// ComputeGrowth matches current and prior groups by key and reports the
// quantity change per key. Keys present on only one side are included with
// the missing side as zero and a nil percentage.
func ComputeGrowth(current, prior []analytics.DimensionAggregate) []analytics.GrowthMetric {
	cur := make(map[string]decimal.Decimal, len(current))
	for _, g := range current {
		cur[g.Key] = g.Quantity
	}
	prev := make(map[string]decimal.Decimal, len(prior))
	for _, g := range prior {
		prev[g.Key] = g.Quantity
	}

	keys := make([]string, 0, len(cur)+len(prev))
	for k := range cur {
		keys = append(keys, k)
	}
	for k := range prev {
		if _, ok := cur[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	metrics := make([]analytics.GrowthMetric, 0, len(keys))
	for _, k := range keys {
		c, inCurrent := cur[k]
		p, inPrior := prev[k]

		m := analytics.GrowthMetric{
			Key:          k,
			CurrentValue: c,
			PriorValue:   p,
			AbsChange:    c.Sub(p),
		}
		if inCurrent && inPrior {
			m.PctChange = GrowthPct(c, p)
		}
		metrics = append(metrics, m)
	}
	return metrics
}

// GrowthByKey indexes growth metrics by key
func GrowthByKey(metrics []analytics.GrowthMetric) map[string]analytics.GrowthMetric {
	out := make(map[string]analytics.GrowthMetric, len(metrics))
	for _, m := range metrics {
		out[m.Key] = m
	}
	return out
}
