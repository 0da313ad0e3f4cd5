// Package dates holds the reporting-period helpers shared by the CLI and
// the wizard.
package dates

import (
	"fmt"
	"time"
)

// ISO is the wire format for dates throughout the analytics API.
const ISO = "2006-01-02"

// Range is an inclusive reporting period.
type Range struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

// Parse validates a YYYY-MM-DD date string and returns it normalized.
func Parse(s string) (string, error) {
	t, err := time.Parse(ISO, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return t.Format(ISO), nil
}

// MonthRange returns the first and last day of one month.
func MonthRange(year, month int) (Range, error) {
	return SpanRange(year, month, month)
}

// SpanRange returns the first day of startMonth through the last day of
// endMonth within a year.
func SpanRange(year, startMonth, endMonth int) (Range, error) {
	if startMonth < 1 || startMonth > 12 || endMonth < 1 || endMonth > 12 {
		return Range{}, fmt.Errorf("month must be 1-12")
	}
	if startMonth > endMonth {
		return Range{}, fmt.Errorf("start month must be <= end month")
	}

	start := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	// First day of the month after endMonth, minus one day. AddDate
	// normalizes month 13 into January of the next year.
	end := time.Date(year, time.Month(endMonth+1), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	return Range{Start: start.Format(ISO), End: end.Format(ISO)}, nil
}

// MonthName returns the English month name for a YYYY-MM-DD date, falling
// back to the raw string when unparsable.
func MonthName(date string) string {
	t, err := time.Parse(ISO, date)
	if err != nil {
		return date
	}
	return t.Month().String()
}

// Year returns the year of a YYYY-MM-DD date, or 0 when unparsable.
func Year(date string) int {
	t, err := time.Parse(ISO, date)
	if err != nil {
		return 0
	}
	return t.Year()
}
