package analytics

import (
	"fmt"
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
)

// Granularity describes the span of a resolved period
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// FiscalCalendar defines where the fiscal year starts.
// Fiscal year Y runs from StartMonth of Y-1 up to StartMonth of Y.
type FiscalCalendar struct {
	StartMonth time.Month
}

// DefaultFiscalCalendar starts the fiscal year on July 1
func DefaultFiscalCalendar() FiscalCalendar {
	return FiscalCalendar{StartMonth: time.July}
}

// YearStart returns the first day of fiscal year y
func (f FiscalCalendar) YearStart(y int) time.Time {
	if f.StartMonth == time.January {
		return analytics.FirstOfMonth(y, time.January)
	}
	return analytics.FirstOfMonth(y-1, f.StartMonth)
}

// YearOf returns the fiscal year containing d
func (f FiscalCalendar) YearOf(d time.Time) int {
	if f.StartMonth == time.January || d.Month() < f.StartMonth {
		return d.Year()
	}
	return d.Year() + 1
}

// PeriodRequest is a reporting period as requested by a caller.
// Zero values mean "not supplied".
type PeriodRequest struct {
	UnitID     *string
	Year       int
	Month      int
	FiscalYear bool
}

// ResolvedPeriod is a current window with both comparison windows
type ResolvedPeriod struct {
	Granularity Granularity      `json:"granularity"`
	Current     analytics.Window `json:"current"`
	PriorMoM    analytics.Window `json:"prior_mom"`
	PriorYoY    analytics.Window `json:"prior_yoy"`
	Year        int              `json:"year"`
	Month       int              `json:"month,omitempty"`
	FiscalYear  bool             `json:"fiscal_year"`
}

// WindowPair is a truncated current window with its same-length prior
type WindowPair struct {
	Current analytics.Window `json:"current"`
	Prior   analytics.Window `json:"prior"`
}

// PeriodResolver turns period requests into comparable windows
type PeriodResolver struct {
	fiscal FiscalCalendar
	now    func() time.Time
}

// NewPeriodResolver creates a PeriodResolver. A nil clock uses time.Now.
func NewPeriodResolver(fiscal FiscalCalendar, now func() time.Time) *PeriodResolver {
	if fiscal.StartMonth < time.January || fiscal.StartMonth > time.December {
		fiscal = DefaultFiscalCalendar()
	}
	if now == nil {
		now = time.Now
	}
	return &PeriodResolver{fiscal: fiscal, now: now}
}

// Today returns the resolver's current calendar date
func (r *PeriodResolver) Today() time.Time {
	return analytics.Date(r.now())
}

// Fiscal returns the resolver's fiscal calendar
func (r *PeriodResolver) Fiscal() FiscalCalendar {
	return r.fiscal
}

func (r *PeriodResolver) validate(req PeriodRequest) error {
	if req.Month < 0 || req.Month > 12 {
		return analytics.ErrInvalidPeriod.WithMessage(fmt.Sprintf("month must be between 1 and 12, got %d", req.Month))
	}
	if req.Year < 0 || req.Year > 9999 {
		return analytics.ErrInvalidPeriod.WithMessage(fmt.Sprintf("year must be between 1 and 9999, got %d", req.Year))
	}
	return nil
}

// Resolve returns the current window and its MoM and YoY comparison windows.
// A month without a year uses the current year; no month and no year
// resolves to the current calendar month.
func (r *PeriodResolver) Resolve(req PeriodRequest) (ResolvedPeriod, error) {
	if err := r.validate(req); err != nil {
		return ResolvedPeriod{}, err
	}

	today := r.Today()
	year := req.Year
	if req.Month > 0 || year == 0 {
		if year == 0 {
			year = today.Year()
		}
		month := time.Month(req.Month)
		if month == 0 {
			month = today.Month()
		}
		return resolveMonth(year, month, req.FiscalYear), nil
	}

	var start time.Time
	if req.FiscalYear {
		start = r.fiscal.YearStart(year)
	} else {
		start = analytics.FirstOfMonth(year, time.January)
	}
	current := analytics.Window{Start: start, End: start.AddDate(1, 0, 0)}
	prior := analytics.Window{Start: start.AddDate(-1, 0, 0), End: start}

	return ResolvedPeriod{
		Granularity: GranularityYear,
		Current:     current,
		PriorMoM:    prior,
		PriorYoY:    prior,
		Year:        year,
		FiscalYear:  req.FiscalYear,
	}, nil
}

func resolveMonth(year int, month time.Month, fiscal bool) ResolvedPeriod {
	start := analytics.FirstOfMonth(year, month)
	current := analytics.Window{Start: start, End: start.AddDate(0, 1, 0)}
	mom := analytics.Window{Start: start.AddDate(0, -1, 0), End: start}
	yoy := analytics.Window{Start: start.AddDate(-1, 0, 0), End: current.End.AddDate(-1, 0, 0)}

	return ResolvedPeriod{
		Granularity: GranularityMonth,
		Current:     current,
		PriorMoM:    mom,
		PriorYoY:    yoy,
		Year:        year,
		Month:       int(month),
		FiscalYear:  fiscal,
	}
}

// YearToDate returns the year-to-date window truncated at asOf, which is
// an exclusive cutoff, and the prior-year window covering the same number
// of days from the prior period start. The prior window never runs past
// the current period start, so a complete leap year compares against a
// complete 365-day year.
//
// A month narrows the period end to that month's end. Without a year the
// period containing asOf is used.
func (r *PeriodResolver) YearToDate(req PeriodRequest, asOf time.Time) (WindowPair, error) {
	if err := r.validate(req); err != nil {
		return WindowPair{}, err
	}
	asOf = analytics.Date(asOf)

	var start, end time.Time
	switch {
	case req.Year == 0 && req.Month == 0:
		last := asOf.AddDate(0, 0, -1)
		start = r.periodStart(req.FiscalYear, r.yearOf(req.FiscalYear, last))
		end = start.AddDate(1, 0, 0)
	case req.Month > 0:
		year := req.Year
		if year == 0 {
			year = asOf.Year()
		}
		monthStart := analytics.FirstOfMonth(year, time.Month(req.Month))
		start = r.periodStart(req.FiscalYear, r.yearOf(req.FiscalYear, monthStart))
		end = monthStart.AddDate(0, 1, 0)
	default:
		start = r.periodStart(req.FiscalYear, req.Year)
		end = start.AddDate(1, 0, 0)
	}

	return truncatedPair(start, end, asOf, start.AddDate(-1, 0, 0), start), nil
}

// MonthToDate returns the month window truncated at asOf, which is an
// exclusive cutoff, and the previous month covering the same number of days.
func (r *PeriodResolver) MonthToDate(req PeriodRequest, asOf time.Time) (WindowPair, error) {
	if err := r.validate(req); err != nil {
		return WindowPair{}, err
	}
	asOf = analytics.Date(asOf)

	year, month := req.Year, time.Month(req.Month)
	if year == 0 || month == 0 {
		last := asOf.AddDate(0, 0, -1)
		if year == 0 {
			year = last.Year()
		}
		if month == 0 {
			month = last.Month()
		}
	}

	start := analytics.FirstOfMonth(year, month)
	return truncatedPair(start, start.AddDate(0, 1, 0), asOf, start.AddDate(0, -1, 0), start), nil
}

// truncatedPair cuts [start, end) at asOf and lays a prior window of the
// same day count from priorStart, bounded by priorCap.
func truncatedPair(start, end, asOf, priorStart, priorCap time.Time) WindowPair {
	cut := end
	if asOf.Before(cut) {
		cut = asOf
	}
	if cut.Before(start) {
		cut = start
	}
	current := analytics.Window{Start: start, End: cut}

	priorEnd := priorStart.AddDate(0, 0, current.Days())
	if priorEnd.After(priorCap) {
		priorEnd = priorCap
	}
	return WindowPair{
		Current: current,
		Prior:   analytics.Window{Start: priorStart, End: priorEnd},
	}
}

func (r *PeriodResolver) periodStart(fiscal bool, year int) time.Time {
	if fiscal {
		return r.fiscal.YearStart(year)
	}
	return analytics.FirstOfMonth(year, time.January)
}

func (r *PeriodResolver) yearOf(fiscal bool, d time.Time) int {
	if fiscal {
		return r.fiscal.YearOf(d)
	}
	return d.Year()
}

// TrailingMonths returns the window of n whole months ending with the month of end
func TrailingMonths(end time.Time, n int) analytics.Window {
	last := analytics.FirstOfMonth(end.Year(), end.Month())
	return analytics.Window{Start: last.AddDate(0, -(n - 1), 0), End: last.AddDate(0, 1, 0)}
}
