package analytics

import (
	"context"
	"testing"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRFMService(ledger *fakeLedger, opts ...Option) *RFMService {
	resolver := NewPeriodResolver(DefaultFiscalCalendar(), fixedClock(date(2024, 3, 15)))
	return NewRFMService(ledger, resolver, opts...)
}

func TestRFMService_DefaultWindowCoversWholeLedger(t *testing.T) {
	ledger := newFakeLedger(
		newTxn("O0", date(2023, 5, 1), 99).customer("C0", "Lapsed").build(),
		newTxn("O1", date(2023, 6, 10), 10).customer("C1", "First").build(),
		newTxn("O2", date(2024, 5, 20), 30).customer("C2", "Second").build(),
	)
	svc := newTestRFMService(ledger)

	resp, err := svc.Analyze(context.Background(), RFMQuery{Period: PeriodRequest{UnitID: strPtr("U1")}})
	require.NoError(t, err)

	assert.Equal(t, window(2023, 5, 1, 2024, 5, 21), resp.Window)
	assert.Equal(t, date(2024, 5, 20), resp.Metadata.AnalysisDate)
	assert.Equal(t, 3, resp.Metadata.TotalCustomers)
	assert.Equal(t, 3, resp.Metadata.TotalTransactions)
	assert.Equal(t, analytics.BasisQuantity, resp.Metadata.Basis)

	byID := map[string]analytics.RFMCustomer{}
	for _, c := range resp.Customers {
		byID[c.CustomerID] = c
	}
	require.Contains(t, byID, "C0")
	assert.Equal(t, 385, byID["C0"].RecencyDays)
	assert.Equal(t, 0, byID["C2"].RecencyDays)
}

func TestRFMService_DateRange(t *testing.T) {
	ledger := newFakeLedger(
		newTxn("O0", date(2023, 5, 1), 99).customer("C0", "").build(),
		newTxn("O1", date(2023, 6, 10), 10).customer("C1", "").build(),
		newTxn("O2", date(2023, 6, 30), 20).customer("C2", "").build(),
		newTxn("O3", date(2024, 5, 20), 30).customer("C3", "").build(),
	)
	svc := newTestRFMService(ledger)

	t.Run("end date is inclusive", func(t *testing.T) {
		resp, err := svc.Analyze(context.Background(), RFMQuery{
			StartDate: date(2023, 6, 1),
			EndDate:   date(2023, 6, 30),
		})
		require.NoError(t, err)
		assert.Equal(t, window(2023, 6, 1, 2023, 7, 1), resp.Window)
		assert.Equal(t, date(2023, 6, 30), resp.Metadata.AnalysisDate)
		assert.Equal(t, 2, resp.Metadata.TotalCustomers)
	})

	t.Run("dates win over the period", func(t *testing.T) {
		resp, err := svc.Analyze(context.Background(), RFMQuery{
			Period:    PeriodRequest{Year: 2024},
			StartDate: date(2023, 6, 1),
			EndDate:   date(2023, 6, 30),
		})
		require.NoError(t, err)
		assert.Equal(t, window(2023, 6, 1, 2023, 7, 1), resp.Window)
	})

	t.Run("missing end runs to the latest transaction", func(t *testing.T) {
		resp, err := svc.Analyze(context.Background(), RFMQuery{StartDate: date(2023, 6, 15)})
		require.NoError(t, err)
		assert.Equal(t, window(2023, 6, 15, 2024, 5, 21), resp.Window)
		assert.Equal(t, 2, resp.Metadata.TotalCustomers)
	})

	t.Run("missing start runs from the first transaction", func(t *testing.T) {
		resp, err := svc.Analyze(context.Background(), RFMQuery{EndDate: date(2023, 6, 10)})
		require.NoError(t, err)
		assert.Equal(t, window(2023, 5, 1, 2023, 6, 11), resp.Window)
		assert.Equal(t, 2, resp.Metadata.TotalCustomers)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := svc.Analyze(context.Background(), RFMQuery{
			StartDate: date(2023, 6, 30),
			EndDate:   date(2023, 6, 1),
		})
		assert.ErrorIs(t, err, analytics.ErrInvalidPeriod)
	})

	t.Run("same day is a one day range", func(t *testing.T) {
		resp, err := svc.Analyze(context.Background(), RFMQuery{
			StartDate: date(2023, 6, 10),
			EndDate:   date(2023, 6, 10),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Window.Days())
		assert.Equal(t, 1, resp.Metadata.TotalCustomers)
	})
}

func TestRFMService_EmptyLedger(t *testing.T) {
	svc := newTestRFMService(newFakeLedger())

	resp, err := svc.Analyze(context.Background(), RFMQuery{})
	require.NoError(t, err)
	assert.Equal(t, window(2024, 3, 16, 2024, 3, 16), resp.Window)
	assert.True(t, resp.Window.IsEmpty())
	assert.Empty(t, resp.Customers)
	assert.Empty(t, resp.SegmentSummary)
}

func TestRFMService_ExplicitPeriodAndBasis(t *testing.T) {
	ledger := newFakeLedger(
		newTxn("O1", date(2023, 12, 31), 10).customer("C1", "").build(),
		newTxn("O2", date(2024, 2, 1), 10).revenue(900).customer("C2", "").build(),
		newTxn("O3", date(2024, 2, 1), 50).revenue(100).customer("C3", "").build(),
	)
	svc := newTestRFMService(ledger)

	resp, err := svc.Analyze(context.Background(), RFMQuery{
		Period: PeriodRequest{Year: 2024},
		Basis:  analytics.BasisRevenue,
	})
	require.NoError(t, err)

	assert.Equal(t, window(2024, 1, 1, 2025, 1, 1), resp.Window)
	require.Len(t, resp.Customers, 2)
	assert.Equal(t, analytics.BasisRevenue, resp.Metadata.Basis)
	for _, c := range resp.Customers {
		if c.CustomerID == "C2" {
			assert.Equal(t, 1.0, c.MRank)
		}
	}
}

func TestRFMService_Errors(t *testing.T) {
	svc := newTestRFMService(newFakeLedger())

	_, err := svc.Analyze(context.Background(), RFMQuery{Basis: "volume"})
	assert.ErrorIs(t, err, analytics.ErrInvalidBasis)

	_, err = svc.Analyze(context.Background(), RFMQuery{Period: PeriodRequest{Month: 14}})
	assert.ErrorIs(t, err, analytics.ErrInvalidPeriod)

	broken := newFakeLedger()
	broken.err = errBoom
	_, err = newTestRFMService(broken).Analyze(context.Background(), RFMQuery{})
	assert.ErrorIs(t, err, errBoom)
}

func TestRFMService_SegmentsUsesCache(t *testing.T) {
	ledger := newFakeLedger(
		newTxn("O1", date(2024, 1, 10), 10).customer("C1", "").build(),
		newTxn("O2", date(2024, 2, 10), 20).customer("C2", "").build(),
	)
	cache := newMemoryCache()
	svc := newTestRFMService(ledger, WithCache(cache))

	first, err := svc.Segments(context.Background(), RFMQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, first)
	fetches := ledger.fetches.Load()

	second, err := svc.Segments(context.Background(), RFMQuery{})
	require.NoError(t, err)
	assert.Equal(t, fetches, ledger.fetches.Load())
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, 1, cache.len())
}
