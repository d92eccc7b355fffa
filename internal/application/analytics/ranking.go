package analytics

import (
	"slices"
	"strings"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// DefaultConcentrationTopK is the number of customers counted in the concentration ratio
const DefaultConcentrationTopK = 10

// SortByQuantityDesc returns a copy of groups sorted by quantity descending.
// Equal quantities are ordered by key ascending.
func SortByQuantityDesc(groups []analytics.DimensionAggregate) []analytics.DimensionAggregate {
	sorted := slices.Clone(groups)
	slices.SortStableFunc(sorted, func(a, b analytics.DimensionAggregate) int {
		if c := b.Quantity.Cmp(a.Quantity); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return sorted
}

// Rank takes the first topN and the last bottomN groups of one descending
// ordering. Bottom never repeats a group already in Top, so it is empty
// when there are no more than topN groups.
func Rank(groups []analytics.DimensionAggregate, topN, bottomN int) analytics.RankedView {
	sorted := SortByQuantityDesc(groups)
	topN = clamp(topN, 0, len(sorted))

	view := analytics.RankedView{
		Top:    sorted[:topN],
		Bottom: []analytics.DimensionAggregate{},
	}

	remaining := len(sorted) - topN
	bottomN = clamp(bottomN, 0, remaining)
	if bottomN > 0 {
		view.Bottom = sorted[len(sorted)-bottomN:]
	}
	return view
}

// Concentration returns the share of total quantity held by the topK
// groups, as a ratio in [0, 1]. A zero total yields a zero ratio.
func Concentration(groups []analytics.DimensionAggregate, topK int) analytics.ConcentrationResult {
	if topK <= 0 {
		topK = DefaultConcentrationTopK
	}
	sorted := SortByQuantityDesc(groups)

	total := decimal.Zero
	for _, g := range sorted {
		total = total.Add(g.Quantity)
	}

	top := sorted[:clamp(topK, 0, len(sorted))]
	topSum := decimal.Zero
	for _, g := range top {
		topSum = topSum.Add(g.Quantity)
	}

	result := analytics.ConcentrationResult{
		TopK:          top,
		TotalQuantity: total,
	}
	if !total.IsZero() {
		result.Ratio = topSum.Div(total).InexactFloat64()
	}
	return result
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
