package analytics

import "github.com/shopspring/decimal"

// ForecastKind selects which dimension a forecast series belongs to
type ForecastKind string

const (
	ForecastGlobal    ForecastKind = "global"
	ForecastItem      ForecastKind = "item"
	ForecastTerritory ForecastKind = "territory"
)

// GlobalSeriesKey is the series key used for the global forecast
const GlobalSeriesKey = "global"

// ParseForecastKind validates a forecast kind
func ParseForecastKind(raw string) (ForecastKind, error) {
	switch ForecastKind(raw) {
	case ForecastGlobal, ForecastItem, ForecastTerritory:
		return ForecastKind(raw), nil
	}
	return "", ErrInvalidDimension.WithMessage("unknown forecast kind: " + raw)
}

// Dimension maps the forecast kind onto the transaction dimension it splits by
func (k ForecastKind) Dimension() Dimension {
	switch k {
	case ForecastItem:
		return DimensionItem
	case ForecastTerritory:
		return DimensionTerritory
	default:
		return ""
	}
}

// MonthlyValue is one month of a series
type MonthlyValue struct {
	Month string          `json:"month"`
	Value decimal.Decimal `json:"value"`
}

// ForecastPoint is one month of a merged actual/forecast series
type ForecastPoint struct {
	Month    string   `json:"month"`
	Actual   *float64 `json:"actual"`
	Forecast *float64 `json:"forecast"`
}

// ForecastQuery selects forecast series from the forecasting collaborator
type ForecastQuery struct {
	UnitID *string
	Kind   ForecastKind
	Values []string
}
