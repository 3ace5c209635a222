// ABOUTME: Tests for fiscal-year arithmetic and date parsing
// ABOUTME: Covers FY boundaries, quarter math, month keys, and unknown dates
package fiscal

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearOf(t *testing.T) {
	tests := []struct {
		date      time.Time
		label     string
		startYear int
		quarter   int
	}{
		{date(2024, time.July, 1), "FY 24/25", 2024, 1},
		{date(2024, time.September, 30), "FY 24/25", 2024, 1},
		{date(2024, time.October, 1), "FY 24/25", 2024, 2},
		{date(2025, time.January, 15), "FY 24/25", 2024, 3},
		{date(2025, time.April, 1), "FY 24/25", 2024, 4},
		{date(2025, time.June, 30), "FY 24/25", 2024, 4},
		{date(2025, time.July, 1), "FY 25/26", 2025, 1},
		{date(2024, time.June, 30), "FY 23/24", 2023, 4},
	}

	for _, tt := range tests {
		fy := YearOf(tt.date, DefaultStartMonth)
		if fy.Label != tt.label {
			t.Errorf("YearOf(%s).Label = %q, want %q", tt.date.Format("2006-01-02"), fy.Label, tt.label)
		}
		if fy.StartYear != tt.startYear {
			t.Errorf("YearOf(%s).StartYear = %d, want %d", tt.date.Format("2006-01-02"), fy.StartYear, tt.startYear)
		}
		if fy.Quarter != tt.quarter {
			t.Errorf("YearOf(%s).Quarter = %d, want %d", tt.date.Format("2006-01-02"), fy.Quarter, tt.quarter)
		}
	}
}

func TestYearOfJanuaryStart(t *testing.T) {
	fy := YearOf(date(2024, time.March, 10), time.January)
	if fy.Label != "FY 24/25" || fy.Quarter != 1 {
		t.Errorf("got %+v, want FY 24/25 Q1", fy)
	}
}

func TestLabelCenturyWrap(t *testing.T) {
	if got := Label(1999); got != "FY 99/00" {
		t.Errorf("Label(1999) = %q, want FY 99/00", got)
	}
}

func TestStartEnd(t *testing.T) {
	start := Start(2024, DefaultStartMonth)
	end := End(2024, DefaultStartMonth)
	if !start.Equal(date(2024, time.July, 1)) {
		t.Errorf("Start = %s", start)
	}
	if !end.Equal(date(2025, time.July, 1)) {
		t.Errorf("End = %s", end)
	}
}

func TestMonthKey(t *testing.T) {
	if got := MonthKey(date(2024, time.January, 31)); got != "2024-Jan" {
		t.Errorf("MonthKey = %q, want 2024-Jan", got)
	}

	parsed, ok := ParseMonthKey("2024-Jan")
	if !ok || parsed.Year() != 2024 || parsed.Month() != time.January {
		t.Errorf("ParseMonthKey round trip failed: %s %v", parsed, ok)
	}

	if _, ok := ParseMonthKey("January 2024"); ok {
		t.Error("expected malformed key to fail")
	}
}

func TestMonthsBetween(t *testing.T) {
	months := MonthsBetween(date(2024, time.November, 12), date(2025, time.February, 3))
	want := []string{"2024-Nov", "2024-Dec", "2025-Jan", "2025-Feb"}
	if len(months) != len(want) {
		t.Fatalf("got %d months, want %d", len(months), len(want))
	}
	for i, m := range months {
		if MonthKey(m) != want[i] {
			t.Errorf("months[%d] = %s, want %s", i, MonthKey(m), want[i])
		}
	}

	if got := MonthsBetween(date(2025, time.March, 1), date(2025, time.January, 1)); got != nil {
		t.Errorf("reversed range should be empty, got %v", got)
	}
}

func TestMonthsApart(t *testing.T) {
	tests := []struct {
		a, b time.Time
		want int
	}{
		{date(2024, time.July, 1), date(2024, time.July, 31), 0},
		{date(2024, time.July, 15), date(2024, time.September, 1), 2},
		{date(2024, time.December, 1), date(2025, time.January, 1), 1},
		{date(2025, time.January, 1), date(2024, time.December, 1), -1},
	}
	for _, tt := range tests {
		if got := MonthsApart(tt.a, tt.b); got != tt.want {
			t.Errorf("MonthsApart(%s, %s) = %d, want %d", MonthKey(tt.a), MonthKey(tt.b), got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2024-07-15", "2024-07-15", true},
		{"2024-07-15T10:30:00Z", "2024-07-15", true},
		{"2024-07-15 10:30:00", "2024-07-15", true},
		{"7/15/2024", "2024-07-15", true},
		{"Jul 15, 2024", "2024-07-15", true},
		{"  2024-07-15  ", "2024-07-15", true},
		{"", "", false},
		{"not a date", "", false},
		{"15-07-2024", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseDate(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if ok && got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
		}
		if !ok && !got.IsZero() {
			t.Errorf("ParseDate(%q) should return zero time on failure", tt.input)
		}
	}
}
