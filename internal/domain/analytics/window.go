package analytics

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar date format
const DateLayout = "2006-01-02"

// MonthLayout is the canonical month key format
const MonthLayout = "2006-01"

// Window is a half-open date range [Start, End).
// Both bounds are calendar dates at UTC midnight.
type Window struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewWindow builds a window from two dates, truncating both to UTC midnight
func NewWindow(start, end time.Time) Window {
	return Window{Start: Date(start), End: Date(end)}
}

// Date truncates t to its calendar date at UTC midnight
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FirstOfMonth returns the first day of the given month
func FirstOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	d := Date(t)
	return !d.Before(w.Start) && d.Before(w.End)
}

// Days returns the number of calendar days covered
func (w Window) Days() int {
	if !w.End.After(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// IsEmpty reports whether the window covers no days
func (w Window) IsEmpty() bool {
	return !w.End.After(w.Start)
}

// LastDay returns the last calendar day inside the window
func (w Window) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

// String formats the window as start..end
func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format(DateLayout), w.End.Format(DateLayout))
}

// MonthKey formats t as YYYY-MM
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}
