package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// excelEpoch is day zero of the 1900 date system used by xlsx files.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are the explicit formats seen across report vintages,
// tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"1/2/06",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// reFreeTextDate picks the month word and first day number out of
// informal text like "Nov. 1-3", "Nov 1 & 3", or "November 12".
var reFreeTextDate = regexp.MustCompile(`(?i)^([A-Za-z]+)\.?\s+(\d{1,2})`)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ResolveDate converts whatever date representation the source used
// into a concrete calendar date. Free-text forms carry no year, so the
// fiscal-year context of the batch supplies it.
func ResolveDate(raw string, fy FiscalYear) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	// Spreadsheet serial numbers survive in unformatted cells.
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial < 10000 || serial > 80000 {
			return time.Time{}, fmt.Errorf("serial %v outside plausible date range", serial)
		}
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	if m := reFreeTextDate.FindStringSubmatch(raw); m != nil {
		prefix := strings.ToLower(m[1])
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
		month, ok := monthsByPrefix[prefix]
		if !ok {
			return time.Time{}, fmt.Errorf("unknown month %q in %q", m[1], raw)
		}
		day, err := strconv.Atoi(m[2])
		if err != nil || day < 1 || day > 31 {
			return time.Time{}, fmt.Errorf("bad day number in %q", raw)
		}
		return time.Date(fy.YearFor(month), month, day, 0, 0, 0, 0, time.UTC), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
