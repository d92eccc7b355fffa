package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"github.com/stretchr/testify/mock"
)

// fakeLedger is an in-memory TransactionRepository
type fakeLedger struct {
	txns    []analytics.Transaction
	units   []analytics.BusinessUnit
	err     error
	fetches atomic.Int32
}

func newFakeLedger(txns ...analytics.Transaction) *fakeLedger {
	return &fakeLedger{txns: txns}
}

// all returns the unit's transactions regardless of date
func (l *fakeLedger) all(unitID *string) []analytics.Transaction {
	var out []analytics.Transaction
	for _, t := range l.txns {
		if unitID != nil && t.BusinessUnitID != *unitID {
			continue
		}
		out = append(out, t)
	}
	return out
}

// filter returns the unit's transactions inside w; an empty window matches nothing
func (l *fakeLedger) filter(unitID *string, w analytics.Window) []analytics.Transaction {
	out := []analytics.Transaction{}
	for _, t := range l.all(unitID) {
		if w.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

func (l *fakeLedger) FetchTransactions(_ context.Context, f analytics.TransactionFilter) ([]analytics.Transaction, error) {
	l.fetches.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return l.filter(f.UnitID, f.Window), nil
}

func (l *fakeLedger) MonthlyTotals(_ context.Context, unitID *string, w analytics.Window) ([]analytics.TrendPoint, error) {
	if l.err != nil {
		return nil, l.err
	}
	byMonth := map[string]*analytics.TrendPoint{}
	orders := map[string]map[string]struct{}{}
	for _, t := range l.filter(unitID, w) {
		m := analytics.MonthKey(t.Date)
		p, ok := byMonth[m]
		if !ok {
			p = &analytics.TrendPoint{Month: m}
			byMonth[m] = p
			orders[m] = map[string]struct{}{}
		}
		p.Quantity = p.Quantity.Add(t.Quantity)
		orders[m][t.OrderID] = struct{}{}
	}
	out := make([]analytics.TrendPoint, 0, len(byMonth))
	for m, p := range byMonth {
		p.OrderCount = int64(len(orders[m]))
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (l *fakeLedger) MonthlySeries(_ context.Context, unitID *string, dim analytics.Dimension, values []string, w analytics.Window) (map[string][]analytics.MonthlyValue, error) {
	if l.err != nil {
		return nil, l.err
	}
	want := map[string]bool{}
	for _, v := range values {
		want[v] = true
	}
	sums := map[string]map[string]analytics.MonthlyValue{}
	for _, t := range l.filter(unitID, w) {
		key := analytics.GlobalSeriesKey
		if dim != "" {
			key = t.Key(dim)
		}
		if len(want) > 0 && !want[key] {
			continue
		}
		if sums[key] == nil {
			sums[key] = map[string]analytics.MonthlyValue{}
		}
		m := analytics.MonthKey(t.Date)
		v := sums[key][m]
		v.Month = m
		v.Value = v.Value.Add(t.Quantity)
		sums[key][m] = v
	}
	out := make(map[string][]analytics.MonthlyValue, len(sums))
	for key, months := range sums {
		for _, v := range months {
			out[key] = append(out[key], v)
		}
		sort.Slice(out[key], func(i, j int) bool { return out[key][i].Month < out[key][j].Month })
	}
	return out, nil
}

func (l *fakeLedger) PaymentModeTotals(_ context.Context, unitID *string, w analytics.Window) ([]analytics.PaymentModeShare, error) {
	if l.err != nil {
		return nil, l.err
	}
	type modeChannel struct {
		mode    analytics.PaymentMode
		channel string
	}
	byMode := map[modeChannel]*analytics.PaymentModeShare{}
	for _, t := range l.filter(unitID, w) {
		k := modeChannel{t.PaymentMode, t.ChannelName}
		s, ok := byMode[k]
		if !ok {
			s = &analytics.PaymentModeShare{Mode: t.PaymentMode, Channel: t.ChannelName}
			byMode[k] = s
		}
		s.OrderCount++
		s.Revenue = s.Revenue.Add(t.Revenue)
	}
	var out []analytics.PaymentModeShare
	for _, s := range byMode {
		out = append(out, *s)
	}
	return out, nil
}

func (l *fakeLedger) AvailableMonths(_ context.Context, unitID *string) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	seen := map[string]bool{}
	var out []string
	for _, t := range l.all(unitID) {
		m := analytics.MonthKey(t.Date)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (l *fakeLedger) DataRange(_ context.Context, unitID *string) (analytics.Window, error) {
	if l.err != nil {
		return analytics.Window{}, l.err
	}
	var span analytics.Window
	for _, t := range l.all(unitID) {
		if span.Start.IsZero() || t.Date.Before(span.Start) {
			span.Start = t.Date
		}
		if end := t.Date.AddDate(0, 0, 1); end.After(span.End) {
			span.End = end
		}
	}
	return span, nil
}

func (l *fakeLedger) ListBusinessUnits(context.Context) ([]analytics.BusinessUnit, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.units, nil
}

// memoryCache stores JSON encodings the way the Redis cache does
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// recordingMetrics counts instrumentation events
type recordingMetrics struct {
	mu            sync.Mutex
	computations  map[string]int
	hits, misses  int
	collaborators []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{computations: map[string]int{}}
}

func (m *recordingMetrics) RecordComputation(_ context.Context, op string, _ time.Duration, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computations[op]++
}

func (m *recordingMetrics) RecordCacheLookup(_ context.Context, _ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *recordingMetrics) RecordCollaboratorFailure(_ context.Context, collaborator string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collaborators = append(m.collaborators, collaborator)
}

// MockForecastSource is a mock implementation of analytics.ForecastSource
type MockForecastSource struct {
	mock.Mock
}

func (m *MockForecastSource) ForecastSeries(ctx context.Context, query analytics.ForecastQuery) (map[string][]analytics.MonthlyValue, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]analytics.MonthlyValue), args.Error(1)
}

func (m *MockForecastSource) TopForecastKeys(ctx context.Context, unitID *string, kind analytics.ForecastKind, limit int) ([]string, error) {
	args := m.Called(ctx, unitID, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockNarrator is a mock implementation of analytics.Narrator
type MockNarrator struct {
	mock.Mock
}

func (m *MockNarrator) Narrate(ctx context.Context, kind analytics.SummaryKind, summary []byte) (string, error) {
	args := m.Called(ctx, kind, summary)
	return args.String(0), args.Error(1)
}

var errBoom = errors.New("boom")
