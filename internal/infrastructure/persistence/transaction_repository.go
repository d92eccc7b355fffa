package persistence

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/infrastructure/persistence/models"
	"github.com/salesinsight/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// dimensionColumns maps each dimension onto its ledger column
var dimensionColumns = map[analytics.Dimension]string{
	analytics.DimensionRegion:    "region",
	analytics.DimensionArea:      "area",
	analytics.DimensionTerritory: "territory",
	analytics.DimensionItem:      "item_name",
	analytics.DimensionCustomer:  "customer_id",
}

// GormTransactionRepository implements analytics.TransactionRepository over
// the sales ledger. Quantities are reported in the display units of its
// UOM policy.
type GormTransactionRepository struct {
	db  *gorm.DB
	uom analytics.UOMPolicy
}

// RepositoryOption configures a GormTransactionRepository
type RepositoryOption func(*GormTransactionRepository)

// WithUOMPolicy converts delivered quantities to display units
func WithUOMPolicy(policy analytics.UOMPolicy) RepositoryOption {
	return func(r *GormTransactionRepository) {
		r.uom = policy
	}
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB, opts ...RepositoryOption) *GormTransactionRepository {
	r := &GormTransactionRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureSchema creates the ledger, unit and forecast tables when absent.
// Only local SQLite ledgers need it; production tables belong to the ingestion pipeline.
func EnsureSchema(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SalesTransactionModel{},
		&models.BusinessUnitModel{},
		&models.ForecastMonthlyModel{},
	)
}

// monthExpr renders a YYYY-MM expression for col in the connection's dialect
func monthExpr(db *gorm.DB, col string) string {
	if db.Dialector.Name() == DriverSQLite {
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", col)
	}
	return fmt.Sprintf("to_char(%s, 'YYYY-MM')", col)
}

// keyExpr renders a dimension key with blanks mapped to the unknown key
func keyExpr(dim analytics.Dimension) (string, error) {
	col, ok := dimensionColumns[dim]
	if !ok {
		return "", analytics.ErrInvalidDimension.WithMessage("unknown dimension: " + string(dim))
	}
	return fmt.Sprintf("COALESCE(NULLIF(TRIM(%s), ''), '%s')", col, analytics.UnknownKey), nil
}

// quantityExpr renders the delivered quantity in display units. Units with
// a conversion rule are converted through gross weight unless recorded in
// one of their native UOMs.
func (r *GormTransactionRepository) quantityExpr() (string, []any) {
	p := r.uom
	if p.DisplayUnit == "" || len(p.Units) == 0 || p.WeightPerDisplayUnit.IsZero() {
		return "quantity", nil
	}

	ids := make([]string, 0, len(p.Units))
	for id := range p.Units {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// A fixed-point literal keeps SQLite from integer division
	divisor := p.WeightPerDisplayUnit.StringFixed(4)
	var b strings.Builder
	var args []any
	b.WriteString("CASE")
	for _, id := range ids {
		if natives := p.Units[id].NativeUOMs; len(natives) > 0 {
			lowered := make([]string, len(natives))
			for i, n := range natives {
				lowered[i] = strings.ToLower(n)
			}
			b.WriteString(" WHEN business_unit_id = ? AND LOWER(TRIM(uom)) IN ? THEN quantity")
			args = append(args, id, lowered)
		}
		b.WriteString(" WHEN business_unit_id = ? THEN quantity * gross_weight / " + divisor)
		args = append(args, id)
	}
	b.WriteString(" ELSE quantity END")
	return b.String(), args
}

// scope selects the ledger rows of one unit, or all units when unitID is nil
func (r *GormTransactionRepository) scope(ctx context.Context, unitID *string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.SalesTransactionModel{})
	if unitID != nil {
		q = q.Where("business_unit_id = ?", *unitID)
	}
	return q
}

// ledger narrows scope to the window. Callers short circuit empty windows.
func (r *GormTransactionRepository) ledger(ctx context.Context, unitID *string, window analytics.Window) *gorm.DB {
	return r.scope(ctx, unitID).
		Where("delivery_date >= ? AND delivery_date < ?", window.Start, window.End)
}

// FetchTransactions returns every transaction matching the filter, oldest first
func (r *GormTransactionRepository) FetchTransactions(ctx context.Context, filter analytics.TransactionFilter) ([]analytics.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "fetch_transactions",
		telemetry.WithAttribute(telemetry.SpanAttrWindow, filter.Window.String()),
	)
	defer span.End()

	if filter.Window.IsEmpty() {
		return []analytics.Transaction{}, nil
	}

	q := r.ledger(ctx, filter.UnitID, filter.Window)
	if filter.Dimension != "" && len(filter.DimensionValues) > 0 {
		expr, err := keyExpr(filter.Dimension)
		if err != nil {
			return nil, err
		}
		q = q.Where(expr+" IN ?", filter.DimensionValues)
	}

	var rows []models.SalesTransactionModel
	if err := q.Order("delivery_date ASC, order_id ASC").Find(&rows).Error; err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}

	txns := make([]analytics.Transaction, len(rows))
	for i := range rows {
		txns[i] = r.uom.Apply(rows[i].ToDomain())
	}
	telemetry.SetAttributes(span, "rows", len(txns))
	return txns, nil
}

// MonthlyTotals returns per-month distinct order counts and quantity, oldest first
func (r *GormTransactionRepository) MonthlyTotals(ctx context.Context, unitID *string, window analytics.Window) ([]analytics.TrendPoint, error) {
	type monthlyResult struct {
		Month      string
		OrderCount int64
		Quantity   decimal.Decimal
	}

	if window.IsEmpty() {
		return []analytics.TrendPoint{}, nil
	}

	month := monthExpr(r.db, "delivery_date")
	qty, args := r.quantityExpr()
	var results []monthlyResult
	err := r.ledger(ctx, unitID, window).
		Select(month+" AS month, COUNT(DISTINCT order_id) AS order_count, COALESCE(SUM("+qty+"), 0) AS quantity", args...).
		Group(month).
		Order("month ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}

	points := make([]analytics.TrendPoint, len(results))
	for i, res := range results {
		points[i] = analytics.TrendPoint{Month: res.Month, OrderCount: res.OrderCount, Quantity: res.Quantity}
	}
	return points, nil
}

// MonthlySeries returns per-month quantity per dimension key.
// An empty dimension yields one series under analytics.GlobalSeriesKey.
func (r *GormTransactionRepository) MonthlySeries(ctx context.Context, unitID *string, dim analytics.Dimension, values []string, window analytics.Window) (map[string][]analytics.MonthlyValue, error) {
	type seriesResult struct {
		SeriesKey string
		Month     string
		Quantity  decimal.Decimal
	}

	if window.IsEmpty() {
		return map[string][]analytics.MonthlyValue{}, nil
	}

	month := monthExpr(r.db, "delivery_date")
	key := fmt.Sprintf("'%s'", analytics.GlobalSeriesKey)
	group := month
	if dim != "" {
		expr, err := keyExpr(dim)
		if err != nil {
			return nil, err
		}
		key = expr
		group = key + ", " + month
	}

	qty, args := r.quantityExpr()
	q := r.ledger(ctx, unitID, window).
		Select(key+" AS series_key, "+month+" AS month, COALESCE(SUM("+qty+"), 0) AS quantity", args...)
	if dim != "" && len(values) > 0 {
		q = q.Where(key+" IN ?", values)
	}

	var results []seriesResult
	if err := q.Group(group).Order("month ASC").Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("monthly series: %w", err)
	}

	series := make(map[string][]analytics.MonthlyValue)
	for _, res := range results {
		series[res.SeriesKey] = append(series[res.SeriesKey], analytics.MonthlyValue{Month: res.Month, Value: res.Quantity})
	}
	return series, nil
}

// PaymentModeTotals returns order count and revenue per stored payment mode
// and sales channel. Modes are returned as stored; normalization happens in
// the application layer.
func (r *GormTransactionRepository) PaymentModeTotals(ctx context.Context, unitID *string, window analytics.Window) ([]analytics.PaymentModeShare, error) {
	type modeResult struct {
		PaymentMode string
		Channel     string
		OrderCount  int64
		Revenue     decimal.Decimal
	}

	if window.IsEmpty() {
		return []analytics.PaymentModeShare{}, nil
	}

	channel := fmt.Sprintf("COALESCE(NULLIF(TRIM(channel_name), ''), '%s')", analytics.UnknownKey)
	var results []modeResult
	err := r.ledger(ctx, unitID, window).
		Select("payment_mode, " + channel + " AS channel, COUNT(DISTINCT order_id) AS order_count, COALESCE(SUM(revenue), 0) AS revenue").
		Group("payment_mode, " + channel).
		Order("payment_mode ASC, channel ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("payment mode totals: %w", err)
	}

	shares := make([]analytics.PaymentModeShare, len(results))
	for i, res := range results {
		shares[i] = analytics.PaymentModeShare{
			Mode:       analytics.PaymentMode(res.PaymentMode),
			Channel:    res.Channel,
			OrderCount: res.OrderCount,
			Revenue:    res.Revenue,
		}
	}
	return shares, nil
}

// AvailableMonths lists months with data, newest first
func (r *GormTransactionRepository) AvailableMonths(ctx context.Context, unitID *string) ([]string, error) {
	month := monthExpr(r.db, "delivery_date")
	var results []struct{ Month string }
	err := r.scope(ctx, unitID).
		Select(month + " AS month").
		Group(month).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("available months: %w", err)
	}

	months := make([]string, len(results))
	for i, res := range results {
		months[i] = res.Month
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months, nil
}

// DataRange returns [first date, last date + 1 day), or an empty window
// when the ledger has no rows for the unit.
func (r *GormTransactionRepository) DataRange(ctx context.Context, unitID *string) (analytics.Window, error) {
	first, err := r.boundaryDate(ctx, unitID, "ASC")
	if err != nil || first == nil {
		return analytics.Window{}, err
	}
	last, err := r.boundaryDate(ctx, unitID, "DESC")
	if err != nil || last == nil {
		return analytics.Window{}, err
	}
	return analytics.NewWindow(*first, last.AddDate(0, 0, 1)), nil
}

// boundaryDate reads the earliest or latest delivery date through the typed
// column, which both drivers scan into time.Time.
func (r *GormTransactionRepository) boundaryDate(ctx context.Context, unitID *string, dir string) (*time.Time, error) {
	var dates []time.Time
	err := r.scope(ctx, unitID).
		Order("delivery_date " + dir).
		Limit(1).
		Pluck("delivery_date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("data range: %w", err)
	}
	if len(dates) == 0 {
		return nil, nil
	}
	d := analytics.Date(dates[0])
	return &d, nil
}

// ListBusinessUnits returns the units present in the ledger, named from the
// business unit table when possible.
func (r *GormTransactionRepository) ListBusinessUnits(ctx context.Context) ([]analytics.BusinessUnit, error) {
	type unitResult struct {
		UnitID string
		Name   string
	}

	var results []unitResult
	err := r.db.WithContext(ctx).
		Table("sales_transactions t").
		Select("DISTINCT t.business_unit_id AS unit_id, COALESCE(b.name, 'Unit ' || t.business_unit_id) AS name").
		Joins("LEFT JOIN business_units b ON b.unit_id = t.business_unit_id").
		Where("t.business_unit_id <> ''").
		Order("unit_id ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("list business units: %w", err)
	}

	units := make([]analytics.BusinessUnit, len(results))
	for i, res := range results {
		units[i] = analytics.BusinessUnit{UnitID: res.UnitID, Name: res.Name}
	}
	return units, nil
}
