package analytics

import (
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// ZeroFillTrend returns one point per month of window, in order, filling
// months absent from points with zero orders and quantity.
func ZeroFillTrend(points []analytics.TrendPoint, window analytics.Window) []analytics.TrendPoint {
	byMonth := make(map[string]analytics.TrendPoint, len(points))
	for _, p := range points {
		existing, ok := byMonth[p.Month]
		if ok {
			p.OrderCount += existing.OrderCount
			p.Quantity = p.Quantity.Add(existing.Quantity)
		}
		byMonth[p.Month] = p
	}

	out := []analytics.TrendPoint{}
	start := analytics.FirstOfMonth(window.Start.Year(), window.Start.Month())
	for m := start; m.Before(window.End); m = m.AddDate(0, 1, 0) {
		key := analytics.MonthKey(m)
		p, ok := byMonth[key]
		if !ok {
			p = analytics.TrendPoint{Month: key, Quantity: decimal.Zero}
		}
		out = append(out, p)
	}
	return out
}

// MonthsBetween lists the month keys from start's month up to, but not
// including, end's month
func MonthsBetween(start, end time.Time) []string {
	var out []string
	for m := analytics.FirstOfMonth(start.Year(), start.Month()); m.Before(end); m = m.AddDate(0, 1, 0) {
		out = append(out, analytics.MonthKey(m))
	}
	return out
}
