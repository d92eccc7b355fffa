package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
)

// RFMService segments customers by recency, frequency and monetary value
type RFMService struct {
	repo     analytics.TransactionRepository
	resolver *PeriodResolver
	opts     serviceOptions
}

// NewRFMService creates a new RFMService
func NewRFMService(repo analytics.TransactionRepository, resolver *PeriodResolver, opts ...Option) *RFMService {
	return &RFMService{
		repo:     repo,
		resolver: resolver,
		opts:     newServiceOptions(opts),
	}
}

// Analyze runs an RFM analysis over the requested date range or period.
// Without either it covers the whole ledger, with recency measured from the
// latest transaction's date.
func (s *RFMService) Analyze(ctx context.Context, q RFMQuery) (*RFMResponse, error) {
	basis := q.Basis
	if basis == "" {
		basis = s.opts.settings.RFM.Basis
	}
	basis, err := analytics.ParseMonetaryBasis(string(basis))
	if err != nil {
		return nil, err
	}

	window, err := s.window(ctx, q)
	if err != nil {
		return nil, err
	}

	key := CacheKey(OpRFM, q.Period.UnitID, window, basis)
	return cached(ctx, &s.opts, OpRFM, key, func(ctx context.Context) (*RFMResponse, error) {
		txns, err := s.repo.FetchTransactions(ctx, analytics.TransactionFilter{UnitID: q.Period.UnitID, Window: window})
		if err != nil {
			return nil, fmt.Errorf("fetch transactions for %s: %w", window, err)
		}

		opts := s.opts.settings.RFM
		opts.Basis = basis
		if opts.AnalysisDate.IsZero() {
			opts.AnalysisDate = window.LastDay()
		}

		result, err := AnalyzeRFM(txns, window, opts)
		if err != nil {
			return nil, err
		}

		return &RFMResponse{
			Window:         window,
			Customers:      result.Customers,
			SegmentSummary: result.SegmentSummary,
			Metadata:       BuildRFMMetadata(txns, window, basis, result, opts.AnalysisDate),
		}, nil
	})
}

// Segments returns only the segment rollup of an analysis
func (s *RFMService) Segments(ctx context.Context, q RFMQuery) ([]analytics.SegmentSummary, error) {
	resp, err := s.Analyze(ctx, q)
	if err != nil {
		return nil, err
	}
	return resp.SegmentSummary, nil
}

// window resolves the analysed range. Explicit dates take precedence over a
// year or month; a missing bound falls back to the ledger's data range.
func (s *RFMService) window(ctx context.Context, q RFMQuery) (analytics.Window, error) {
	if q.StartDate.IsZero() && q.EndDate.IsZero() && (q.Period.Year != 0 || q.Period.Month != 0) {
		period, err := s.resolver.Resolve(q.Period)
		if err != nil {
			return analytics.Window{}, err
		}
		return period.Current, nil
	}

	if !q.StartDate.IsZero() && !q.EndDate.IsZero() {
		return dateRange(q.StartDate, q.EndDate)
	}

	span, err := s.repo.DataRange(ctx, q.Period.UnitID)
	if err != nil {
		return analytics.Window{}, fmt.Errorf("load data range: %w", err)
	}

	start, end := q.StartDate, q.EndDate
	if span.IsEmpty() {
		if start.IsZero() && end.IsZero() {
			tomorrow := s.resolver.Today().AddDate(0, 0, 1)
			return analytics.NewWindow(tomorrow, tomorrow), nil
		}
		// a single bound over an empty ledger is a one day range
		if start.IsZero() {
			start = end
		}
		if end.IsZero() {
			end = start
		}
		return dateRange(start, end)
	}

	if start.IsZero() {
		start = span.Start
	}
	if end.IsZero() {
		end = span.LastDay()
	}
	return dateRange(start, end)
}

// dateRange turns inclusive calendar dates into a half-open window
func dateRange(start, end time.Time) (analytics.Window, error) {
	w := analytics.NewWindow(start, analytics.Date(end).AddDate(0, 0, 1))
	if w.IsEmpty() {
		return analytics.Window{}, analytics.ErrInvalidPeriod.WithMessage(
			fmt.Sprintf("end date %s is before start date %s", end.Format(analytics.DateLayout), start.Format(analytics.DateLayout)))
	}
	return w, nil
}
