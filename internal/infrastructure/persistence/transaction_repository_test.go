package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

// setupLedger opens an in-memory ledger seeded with two units over three months
func setupLedger(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(db.DB))

	txns := []analytics.Transaction{
		{OrderID: "O1", Date: day(2024, 1, 5), BusinessUnitID: "BU1", CustomerID: "C1", CustomerName: "Acme", Region: "North", Area: "A1", Territory: "T1", ItemName: "Widget", ChannelName: "Dealer", Quantity: decimal.NewFromInt(10), Revenue: decimal.NewFromInt(100), PaymentMode: "credit"},
		{OrderID: "O1", Date: day(2024, 1, 5), BusinessUnitID: "BU1", CustomerID: "C1", CustomerName: "Acme", Region: "North", Area: "A1", Territory: "T1", ItemName: "Gadget", ChannelName: "Dealer", Quantity: decimal.NewFromInt(5), Revenue: decimal.NewFromInt(50), PaymentMode: "credit"},
		{OrderID: "O2", Date: day(2024, 1, 20), BusinessUnitID: "BU1", CustomerID: "C2", CustomerName: "Bolt", Region: "South", Area: "A2", Territory: "T2", ItemName: "Widget", ChannelName: "Retail", Quantity: decimal.NewFromInt(3), Revenue: decimal.NewFromInt(30), PaymentMode: "cash"},
		{OrderID: "O3", Date: day(2024, 2, 10), BusinessUnitID: "BU1", CustomerID: "C1", CustomerName: "Acme", Region: "", Area: "A1", Territory: "T1", ItemName: "Widget", ChannelName: "Dealer", Quantity: decimal.NewFromInt(7), Revenue: decimal.NewFromInt(70), PaymentMode: "both"},
		{OrderID: "O4", Date: day(2024, 3, 31), BusinessUnitID: "BU2", CustomerID: "C3", CustomerName: "Core", Region: "North", Area: "A3", Territory: "T3", ItemName: "Gizmo", Quantity: decimal.NewFromInt(2), UOM: "Bag", GrossWeight: decimal.NewFromInt(500), Revenue: decimal.NewFromInt(20), PaymentMode: "Cheque"},
	}
	for _, txn := range txns {
		row := models.SalesTransactionFromDomain(txn)
		require.NoError(t, db.DB.Create(&row).Error)
	}
	require.NoError(t, db.DB.Create(&models.BusinessUnitModel{UnitID: "BU1", Name: "Northern Dairy"}).Error)

	return db.DB
}

func quarter() analytics.Window {
	return analytics.NewWindow(day(2024, 1, 1), day(2024, 4, 1))
}

func TestGormTransactionRepository_FetchTransactions(t *testing.T) {
	repo := NewGormTransactionRepository(setupLedger(t))
	ctx := context.Background()

	t.Run("window is half-open", func(t *testing.T) {
		txns, err := repo.FetchTransactions(ctx, analytics.TransactionFilter{
			Window: analytics.NewWindow(day(2024, 1, 5), day(2024, 1, 20)),
		})
		require.NoError(t, err)
		require.Len(t, txns, 2)
		for _, txn := range txns {
			assert.Equal(t, "O1", txn.OrderID)
			assert.True(t, txn.Date.Equal(day(2024, 1, 5)))
		}
	})

	t.Run("unit filter and ordering", func(t *testing.T) {
		txns, err := repo.FetchTransactions(ctx, analytics.TransactionFilter{UnitID: strPtr("BU1"), Window: quarter()})
		require.NoError(t, err)
		require.Len(t, txns, 4)
		assert.Equal(t, "O1", txns[0].OrderID)
		assert.Equal(t, "O3", txns[3].OrderID)
		assert.Equal(t, analytics.PaymentModeBoth, txns[3].PaymentMode)
		assert.True(t, decimal.NewFromInt(70).Equal(txns[3].Revenue))
	})

	t.Run("unrecognized payment modes read as other", func(t *testing.T) {
		txns, err := repo.FetchTransactions(ctx, analytics.TransactionFilter{UnitID: strPtr("BU2"), Window: quarter()})
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, analytics.PaymentModeOther, txns[0].PaymentMode)
	})

	t.Run("dimension values match the unknown key", func(t *testing.T) {
		txns, err := repo.FetchTransactions(ctx, analytics.TransactionFilter{
			Window:          quarter(),
			Dimension:       analytics.DimensionRegion,
			DimensionValues: []string{analytics.UnknownKey},
		})
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, "O3", txns[0].OrderID)
	})

	t.Run("customer dimension filters on customer id", func(t *testing.T) {
		txns, err := repo.FetchTransactions(ctx, analytics.TransactionFilter{
			Window:          quarter(),
			Dimension:       analytics.DimensionCustomer,
			DimensionValues: []string{"C2"},
		})
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, "Bolt", txns[0].CustomerName)
	})

	t.Run("empty window reads nothing", func(t *testing.T) {
		empty := analytics.NewWindow(day(2030, 1, 1), day(2030, 1, 1))
		txns, err := repo.FetchTransactions(ctx, analytics.TransactionFilter{Window: empty})
		require.NoError(t, err)
		assert.NotNil(t, txns)
		assert.Empty(t, txns)

		txns, err = repo.FetchTransactions(ctx, analytics.TransactionFilter{})
		require.NoError(t, err)
		assert.Empty(t, txns, "zero window is empty, not unbounded")
	})

	t.Run("invalid dimension", func(t *testing.T) {
		_, err := repo.FetchTransactions(ctx, analytics.TransactionFilter{
			Window:          quarter(),
			Dimension:       "channel",
			DimensionValues: []string{"x"},
		})
		assert.ErrorIs(t, err, analytics.ErrInvalidDimension)
	})
}

func TestGormTransactionRepository_MonthlyTotals(t *testing.T) {
	repo := NewGormTransactionRepository(setupLedger(t))

	points, err := repo.MonthlyTotals(context.Background(), strPtr("BU1"), quarter())
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2024-01", points[0].Month)
	assert.Equal(t, int64(2), points[0].OrderCount)
	assert.True(t, decimal.NewFromInt(18).Equal(points[0].Quantity), points[0].Quantity.String())
	assert.Equal(t, "2024-02", points[1].Month)
	assert.Equal(t, int64(1), points[1].OrderCount)
}

func TestGormTransactionRepository_MonthlySeries(t *testing.T) {
	repo := NewGormTransactionRepository(setupLedger(t))
	ctx := context.Background()

	t.Run("global series", func(t *testing.T) {
		series, err := repo.MonthlySeries(ctx, nil, "", nil, quarter())
		require.NoError(t, err)
		require.Len(t, series, 1)

		global := series[analytics.GlobalSeriesKey]
		require.Len(t, global, 3)
		assert.Equal(t, "2024-03", global[2].Month)
		assert.True(t, decimal.NewFromInt(2).Equal(global[2].Value))
	})

	t.Run("per item with filter", func(t *testing.T) {
		series, err := repo.MonthlySeries(ctx, nil, analytics.DimensionItem, []string{"Widget"}, quarter())
		require.NoError(t, err)
		require.Len(t, series, 1)

		widget := series["Widget"]
		require.Len(t, widget, 2)
		assert.Equal(t, "2024-01", widget[0].Month)
		assert.True(t, decimal.NewFromInt(13).Equal(widget[0].Value))
		assert.True(t, decimal.NewFromInt(7).Equal(widget[1].Value))
	})

	t.Run("blank keys group as unknown", func(t *testing.T) {
		series, err := repo.MonthlySeries(ctx, strPtr("BU1"), analytics.DimensionRegion, nil, quarter())
		require.NoError(t, err)
		assert.Contains(t, series, analytics.UnknownKey)
		assert.Contains(t, series, "North")
		assert.Contains(t, series, "South")
	})
}

func TestGormTransactionRepository_PaymentModeTotals(t *testing.T) {
	repo := NewGormTransactionRepository(setupLedger(t))

	shares, err := repo.PaymentModeTotals(context.Background(), nil, quarter())
	require.NoError(t, err)

	byMode := make(map[analytics.PaymentMode]analytics.PaymentModeShare)
	for _, s := range shares {
		byMode[s.Mode] = s
	}
	require.Len(t, byMode, 4)
	assert.Equal(t, int64(1), byMode["credit"].OrderCount)
	assert.True(t, decimal.NewFromInt(150).Equal(byMode["credit"].Revenue))
	assert.Equal(t, "Dealer", byMode["credit"].Channel)
	assert.Equal(t, "Retail", byMode["cash"].Channel)
	assert.Equal(t, analytics.UnknownKey, byMode["Cheque"].Channel)
}

func TestGormTransactionRepository_PaymentModeTotals_SplitsChannels(t *testing.T) {
	db := setupLedger(t)
	extra := analytics.Transaction{
		OrderID: "O5", Date: day(2024, 2, 11), BusinessUnitID: "BU1", CustomerID: "C2",
		ChannelName: "Retail", Quantity: decimal.NewFromInt(1), Revenue: decimal.NewFromInt(40), PaymentMode: "credit",
	}
	row := models.SalesTransactionFromDomain(extra)
	require.NoError(t, db.Create(&row).Error)
	repo := NewGormTransactionRepository(db)

	shares, err := repo.PaymentModeTotals(context.Background(), strPtr("BU1"), quarter())
	require.NoError(t, err)

	var credit []analytics.PaymentModeShare
	for _, s := range shares {
		if s.Mode == analytics.PaymentModeCredit {
			credit = append(credit, s)
		}
	}
	require.Len(t, credit, 2)
	assert.Equal(t, "Dealer", credit[0].Channel)
	assert.True(t, decimal.NewFromInt(150).Equal(credit[0].Revenue))
	assert.Equal(t, "Retail", credit[1].Channel)
	assert.True(t, decimal.NewFromInt(40).Equal(credit[1].Revenue))
}

func TestGormTransactionRepository_EmptyWindow(t *testing.T) {
	repo := NewGormTransactionRepository(setupLedger(t))
	ctx := context.Background()
	empty := analytics.NewWindow(day(2024, 2, 1), day(2024, 2, 1))

	points, err := repo.MonthlyTotals(ctx, nil, empty)
	require.NoError(t, err)
	assert.Empty(t, points)

	series, err := repo.MonthlySeries(ctx, nil, analytics.DimensionItem, nil, empty)
	require.NoError(t, err)
	assert.Empty(t, series)

	shares, err := repo.PaymentModeTotals(ctx, nil, empty)
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestGormTransactionRepository_EmptyWindowSkipsQuery(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormTransactionRepository(db.DB)

	txns, err := repo.FetchTransactions(context.Background(), analytics.TransactionFilter{
		Window: analytics.NewWindow(day(2030, 1, 1), day(2030, 1, 1)),
	})
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func tonPolicy() analytics.UOMPolicy {
	return analytics.UOMPolicy{
		DisplayUnit:          "MT",
		WeightPerDisplayUnit: decimal.NewFromInt(1000),
		Units:                map[string]analytics.UOMRule{"BU2": {NativeUOMs: []string{"Ton"}}},
	}
}

func TestGormTransactionRepository_UOMPolicy(t *testing.T) {
	repo := NewGormTransactionRepository(setupLedger(t), WithUOMPolicy(tonPolicy()))
	ctx := context.Background()

	t.Run("fetched rows are converted", func(t *testing.T) {
		txns, err := repo.FetchTransactions(ctx, analytics.TransactionFilter{UnitID: strPtr("BU2"), Window: quarter()})
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.True(t, decimal.NewFromInt(1).Equal(txns[0].Quantity), txns[0].Quantity.String())
		assert.Equal(t, "MT", txns[0].UOM)
	})

	t.Run("units without a rule are untouched", func(t *testing.T) {
		txns, err := repo.FetchTransactions(ctx, analytics.TransactionFilter{UnitID: strPtr("BU1"), Window: quarter()})
		require.NoError(t, err)
		total := decimal.Zero
		for _, txn := range txns {
			total = total.Add(txn.Quantity)
			assert.Equal(t, analytics.DefaultUOMLabel, txn.UOM)
		}
		assert.True(t, decimal.NewFromInt(25).Equal(total), total.String())
	})

	t.Run("sql sums are converted", func(t *testing.T) {
		points, err := repo.MonthlyTotals(ctx, strPtr("BU2"), quarter())
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.True(t, decimal.NewFromInt(1).Equal(points[0].Quantity), points[0].Quantity.String())

		series, err := repo.MonthlySeries(ctx, nil, "", nil, quarter())
		require.NoError(t, err)
		march := series[analytics.GlobalSeriesKey][2]
		assert.Equal(t, "2024-03", march.Month)
		assert.True(t, decimal.NewFromInt(1).Equal(march.Value), march.Value.String())
	})

	t.Run("native uom is kept", func(t *testing.T) {
		db := setupLedger(t)
		ton := analytics.Transaction{
			OrderID: "O6", Date: day(2024, 3, 1), BusinessUnitID: "BU2", CustomerID: "C3",
			Quantity: decimal.NewFromInt(4), UOM: "TON", GrossWeight: decimal.NewFromInt(500), Revenue: decimal.NewFromInt(10),
		}
		row := models.SalesTransactionFromDomain(ton)
		require.NoError(t, db.Create(&row).Error)

		points, err := NewGormTransactionRepository(db, WithUOMPolicy(tonPolicy())).
			MonthlyTotals(ctx, strPtr("BU2"), quarter())
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.True(t, decimal.NewFromInt(5).Equal(points[0].Quantity), points[0].Quantity.String())
	})
}

func TestGormTransactionRepository_PostgresUOMExpression(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormTransactionRepository(db.DB, WithUOMPolicy(tonPolicy()))

	rows := sqlmock.NewRows([]string{"month", "order_count", "quantity"}).AddRow("2024-03", int64(1), "1")
	mock.ExpectQuery(regexp.QuoteMeta("SUM(CASE WHEN business_unit_id = $1 AND LOWER(TRIM(uom)) IN ($2) THEN quantity WHEN business_unit_id = $3 THEN quantity * gross_weight / 1000.0000 ELSE quantity END)")).
		WithArgs("BU2", "ton", "BU2", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	points, err := repo.MonthlyTotals(context.Background(), nil, quarter())
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionRepository_AvailableMonths(t *testing.T) {
	repo := NewGormTransactionRepository(setupLedger(t))

	months, err := repo.AvailableMonths(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03", "2024-02", "2024-01"}, months)

	months, err = repo.AvailableMonths(context.Background(), strPtr("BU2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03"}, months)
}

func TestGormTransactionRepository_DataRange(t *testing.T) {
	repo := NewGormTransactionRepository(setupLedger(t))
	ctx := context.Background()

	t.Run("end is the day after the last delivery", func(t *testing.T) {
		w, err := repo.DataRange(ctx, nil)
		require.NoError(t, err)
		assert.True(t, w.Start.Equal(day(2024, 1, 5)), w.String())
		assert.True(t, w.End.Equal(day(2024, 4, 1)), w.String())
	})

	t.Run("unknown unit yields an empty window", func(t *testing.T) {
		w, err := repo.DataRange(ctx, strPtr("missing"))
		require.NoError(t, err)
		assert.True(t, w.IsEmpty())
	})
}

func TestGormTransactionRepository_ListBusinessUnits(t *testing.T) {
	repo := NewGormTransactionRepository(setupLedger(t))

	units, err := repo.ListBusinessUnits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []analytics.BusinessUnit{
		{UnitID: "BU1", Name: "Northern Dairy"},
		{UnitID: "BU2", Name: "Unit BU2"},
	}, units)
}

func TestGormTransactionRepository_PostgresMonthExpression(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormTransactionRepository(db.DB)

	rows := sqlmock.NewRows([]string{"month", "order_count", "quantity"}).
		AddRow("2024-01", int64(4), "12.5")
	mock.ExpectQuery(regexp.QuoteMeta("to_char(delivery_date, 'YYYY-MM') AS month")).
		WillReturnRows(rows)

	points, err := repo.MonthlyTotals(context.Background(), nil, quarter())
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(4), points[0].OrderCount)
	assert.True(t, decimal.RequireFromString("12.5").Equal(points[0].Quantity))
	assert.NoError(t, mock.ExpectationsWereMet())
}
