// Package normalize resolves raw extracted values into the canonical
// snapshot shape: concrete calendar dates, fiscal and ISO week numbers,
// stable performance codes, and canonical series labels.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// A fiscal year spans July through June. Months July-December belong to
// the fiscal year's start calendar year, January-June to the following
// one. FY25 runs 2024-07-01 through 2025-06-30.
type FiscalYear struct {
	Label     string
	StartYear int
}

var reFiscalLabel = regexp.MustCompile(`^(?i:FY)\s*(\d{2}|\d{4})$`)

// ParseFiscalYear parses labels like "FY25" or "FY2025".
func ParseFiscalYear(label string) (FiscalYear, error) {
	m := reFiscalLabel.FindStringSubmatch(label)
	if m == nil {
		return FiscalYear{}, fmt.Errorf("invalid fiscal year label %q", label)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return FiscalYear{}, err
	}
	if n < 100 {
		n += 2000
	}
	return FiscalYear{Label: fmt.Sprintf("FY%02d", n%100), StartYear: n - 1}, nil
}

// FiscalYearForDate returns the fiscal year containing d.
func FiscalYearForDate(d time.Time) FiscalYear {
	startYear := d.Year()
	if d.Month() < time.July {
		startYear--
	}
	return FiscalYear{
		Label:     fmt.Sprintf("FY%02d", (startYear+1)%100),
		StartYear: startYear,
	}
}

// Start returns the first day of the fiscal year.
func (fy FiscalYear) Start() time.Time {
	return time.Date(fy.StartYear, time.July, 1, 0, 0, 0, 0, time.UTC)
}

// YearFor maps a month to its calendar year inside this fiscal year.
func (fy FiscalYear) YearFor(month time.Month) int {
	if month >= time.July {
		return fy.StartYear
	}
	return fy.StartYear + 1
}

// Contains reports whether d falls inside the fiscal year.
func (fy FiscalYear) Contains(d time.Time) bool {
	start := fy.Start()
	return !d.Before(start) && d.Before(start.AddDate(1, 0, 0))
}

// FiscalWeek returns the 1-indexed week number of d counted from the
// start of the fiscal year containing it.
func FiscalWeek(d time.Time) int {
	start := FiscalYearForDate(d).Start()
	days := int(d.Sub(start).Hours() / 24)
	return days/7 + 1
}
