package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	analyticsapp "github.com/salesinsight/backend/internal/application/analytics"
	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/salesinsight/backend/internal/interfaces/http/dto"
	"github.com/salesinsight/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type MockSalesService struct {
	mock.Mock
}

func (m *MockSalesService) SalesMetrics(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.SalesMetricsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.SalesMetricsResponse), args.Error(1)
}

func (m *MockSalesService) YTDComparison(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.ComparisonResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.ComparisonResponse), args.Error(1)
}

func (m *MockSalesService) MTDStats(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.ComparisonResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.ComparisonResponse), args.Error(1)
}

func (m *MockSalesService) AvailableMonths(ctx context.Context, unitID *string) ([]string, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSalesService) BusinessUnits(ctx context.Context) ([]analytics.BusinessUnit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.BusinessUnit), args.Error(1)
}

func (m *MockSalesService) DimensionBreakdown(ctx context.Context, q analyticsapp.DimensionQuery) (*analyticsapp.DimensionBreakdownResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.DimensionBreakdownResponse), args.Error(1)
}

func (m *MockSalesService) RegionalPerformance(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.RegionalPerformanceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.RegionalPerformanceResponse), args.Error(1)
}

func (m *MockSalesService) CustomerAnalytics(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.CustomerAnalyticsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.CustomerAnalyticsResponse), args.Error(1)
}

func (m *MockSalesService) PaymentModes(ctx context.Context, req analyticsapp.PeriodRequest) (*analyticsapp.PaymentModeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.PaymentModeResponse), args.Error(1)
}

type MockRFMService struct {
	mock.Mock
}

func (m *MockRFMService) Analyze(ctx context.Context, q analyticsapp.RFMQuery) (*analyticsapp.RFMResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.RFMResponse), args.Error(1)
}

func (m *MockRFMService) Segments(ctx context.Context, q analyticsapp.RFMQuery) ([]analytics.SegmentSummary, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.SegmentSummary), args.Error(1)
}

type MockForecastService struct {
	mock.Mock
}

func (m *MockForecastService) Global(ctx context.Context, unitID *string) (*analyticsapp.ForecastSeriesResponse, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.ForecastSeriesResponse), args.Error(1)
}

func (m *MockForecastService) Items(ctx context.Context, unitID *string, limit int) (*analyticsapp.ForecastCollectionResponse, error) {
	args := m.Called(ctx, unitID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.ForecastCollectionResponse), args.Error(1)
}

func (m *MockForecastService) Territories(ctx context.Context, unitID *string, limit int) (*analyticsapp.ForecastCollectionResponse, error) {
	args := m.Called(ctx, unitID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.ForecastCollectionResponse), args.Error(1)
}

func (m *MockForecastService) Insights(ctx context.Context, req analyticsapp.InsightRequest) (*analyticsapp.InsightResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.InsightResponse), args.Error(1)
}

type MockNarrationService struct {
	mock.Mock
}

func (m *MockNarrationService) Narrate(ctx context.Context, req analyticsapp.NarrativeRequest) (*analyticsapp.NarrativeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.NarrativeResponse), args.Error(1)
}

func strPtr(s string) *string { return &s }

// newTestEngine returns an engine with request IDs assigned, as in production
func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func serve(t *testing.T, r *gin.Engine, method, url string, body io.Reader) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

// dataAs re-decodes the generic response data into out
func dataAs(t *testing.T, resp dto.Response, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

