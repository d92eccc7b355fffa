package analytics

import "context"

// TransactionRepository is the read contract against the transaction store
type TransactionRepository interface {
	// FetchTransactions returns every transaction matching the filter
	FetchTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)

	// MonthlyTotals returns per-month order counts and quantity inside the window
	MonthlyTotals(ctx context.Context, unitID *string, window Window) ([]TrendPoint, error)

	// MonthlySeries returns per-month quantity grouped by a dimension.
	// An empty dimension yields a single series under GlobalSeriesKey.
	MonthlySeries(ctx context.Context, unitID *string, dim Dimension, values []string, window Window) (map[string][]MonthlyValue, error)

	// PaymentModeTotals returns order count and revenue per stored payment
	// mode and sales channel
	PaymentModeTotals(ctx context.Context, unitID *string, window Window) ([]PaymentModeShare, error)

	// AvailableMonths lists months with data, newest first
	AvailableMonths(ctx context.Context, unitID *string) ([]string, error)

	// DataRange returns the window spanning the first to the last transaction
	// date. It is empty when the ledger has no rows.
	DataRange(ctx context.Context, unitID *string) (Window, error)

	// ListBusinessUnits returns the business units present in the ledger
	ListBusinessUnits(ctx context.Context) ([]BusinessUnit, error)
}

// ForecastSource reads the forecasting collaborator's published output
type ForecastSource interface {
	// ForecastSeries returns forecast values per series key
	ForecastSeries(ctx context.Context, query ForecastQuery) (map[string][]MonthlyValue, error)

	// TopForecastKeys returns the keys with the largest forecast volume
	TopForecastKeys(ctx context.Context, unitID *string, kind ForecastKind, limit int) ([]string, error)
}

// Narrator turns a structured analysis summary of the given kind into prose
type Narrator interface {
	Narrate(ctx context.Context, kind SummaryKind, summary []byte) (string, error)
}
