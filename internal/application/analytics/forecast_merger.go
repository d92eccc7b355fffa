package analytics

import (
	"sort"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// MergeForecast aligns an actual series and a forecast series into one
// chronological series. Duplicate months within a series are summed and
// months missing from both series are omitted. Given the same inputs the
// output is always identical.
func MergeForecast(actual, forecast []analytics.MonthlyValue) []analytics.ForecastPoint {
	actuals := sumByMonth(actual)
	forecasts := sumByMonth(forecast)

	months := make([]string, 0, len(actuals)+len(forecasts))
	for m := range actuals {
		months = append(months, m)
	}
	for m := range forecasts {
		if _, ok := actuals[m]; !ok {
			months = append(months, m)
		}
	}
	sort.Strings(months)

	points := make([]analytics.ForecastPoint, 0, len(months))
	for _, m := range months {
		p := analytics.ForecastPoint{Month: m}
		if v, ok := actuals[m]; ok {
			f := v.InexactFloat64()
			p.Actual = &f
		}
		if v, ok := forecasts[m]; ok {
			f := v.InexactFloat64()
			p.Forecast = &f
		}
		points = append(points, p)
	}
	return points
}

func sumByMonth(series []analytics.MonthlyValue) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(series))
	for _, v := range series {
		if v.Month == "" {
			continue
		}
		out[v.Month] = out[v.Month].Add(v.Value)
	}
	return out
}

// SplitForecast turns merged points back into actual and forecast series
func SplitForecast(points []analytics.ForecastPoint) (actual, forecast []analytics.MonthlyValue) {
	actual = []analytics.MonthlyValue{}
	forecast = []analytics.MonthlyValue{}
	for _, p := range points {
		if p.Actual != nil {
			actual = append(actual, analytics.MonthlyValue{Month: p.Month, Value: decimal.NewFromFloat(*p.Actual)})
		}
		if p.Forecast != nil {
			forecast = append(forecast, analytics.MonthlyValue{Month: p.Month, Value: decimal.NewFromFloat(*p.Forecast)})
		}
	}
	return actual, forecast
}

// StitchTransition copies the last actual value into the forecast column of
// its month when that month has no forecast but a later month does, so the
// two lines meet on a chart. The input is not modified.
func StitchTransition(points []analytics.ForecastPoint) []analytics.ForecastPoint {
	out := make([]analytics.ForecastPoint, len(points))
	copy(out, points)

	last := -1
	for i, p := range out {
		if p.Actual != nil {
			last = i
		}
	}
	if last < 0 || out[last].Forecast != nil {
		return out
	}
	for _, p := range out[last+1:] {
		if p.Forecast != nil {
			v := *out[last].Actual
			out[last].Forecast = &v
			break
		}
	}
	return out
}
