// ABOUTME: Fiscal-year and month-key date arithmetic
// ABOUTME: Pure helpers shared by classification, pivoting, and forecasting
package fiscal

import (
	"fmt"
	"strings"
	"time"
)

// DefaultStartMonth is the first month of the fiscal year. July gives
// the "FY 24/25" labeling used across every report.
const DefaultStartMonth = time.July

// monthKeyLayout is the canonical pivot column key, e.g. "2024-Jan".
const monthKeyLayout = "2006-Jan"

// Year describes the fiscal year a date falls into.
type Year struct {
	Label     string
	StartYear int
	Quarter   int
}

// YearOf computes the fiscal year of date for a fiscal year beginning
// at startMonth. Quarter 1 starts at startMonth.
func YearOf(date time.Time, startMonth time.Month) Year {
	startYear := date.Year()
	if date.Month() < startMonth {
		startYear--
	}
	quarter := (int(date.Month())-int(startMonth)+12)%12/3 + 1
	return Year{
		Label:     Label(startYear),
		StartYear: startYear,
		Quarter:   quarter,
	}
}

// Label formats a fiscal-year label from its start year, "FY 24/25".
func Label(startYear int) string {
	return fmt.Sprintf("FY %02d/%02d", startYear%100, (startYear+1)%100)
}

// Start returns the first instant of the fiscal year beginning in
// startYear.
func Start(startYear int, startMonth time.Month) time.Time {
	return time.Date(startYear, startMonth, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the fiscal year beginning in
// startYear, i.e. the start of the next one.
func End(startYear int, startMonth time.Month) time.Time {
	return Start(startYear, startMonth).AddDate(1, 0, 0)
}

// MonthKey formats a date into the canonical pivot column key.
func MonthKey(date time.Time) string {
	return date.Format(monthKeyLayout)
}

// ParseMonthKey is the inverse of MonthKey. The zero time and false are
// returned for a malformed key.
func ParseMonthKey(key string) (time.Time, bool) {
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MonthStart truncates a date to the first of its month, UTC.
func MonthStart(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween lists the first-of-month dates from start through end
// inclusive, in order. Empty if end precedes start.
func MonthsBetween(start, end time.Time) []time.Time {
	cur := MonthStart(start)
	last := MonthStart(end)
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// MonthsApart counts whole calendar months from a to b. Negative when b
// is earlier.
func MonthsApart(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// dateLayouts are tried in order by ParseDate. Upstream mixes ISO
// timestamps, bare dates, and US locale strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
}

// ParseDate parses an arbitrary date-like input. It returns false when
// the value cannot be parsed; callers treat that as an explicit unknown
// date rather than substituting the current time, which would bias
// client-age classification toward New.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
