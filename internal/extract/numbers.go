// Package extract walks tokenized documents and emits raw SalesRecords.
// Two strategies exist, selected by document kind: a layout-driven row
// walk for spreadsheets and a fixed grammar keyed on performance-code
// tokens for PDF reports.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reMoney = regexp.MustCompile(`^\(?\$?\d{1,3}(,\d{3})*(\.\d{1,2})?\)?$|^\(?\$?\d+(\.\d{1,2})?\)?$`)
	reCount = regexp.MustCompile(`^\d{1,3}(,\d{3})*$|^\d+$`)
)

// looksLikeMoney reports whether a token reads as a currency amount: a
// leading dollar sign or a decimal fraction. Used by the PDF grammar to
// tell revenue tokens from ticket counts when a conditional field
// shifts positions.
func looksLikeMoney(s string) bool {
	s = strings.TrimSpace(s)
	if !reMoney.MatchString(s) {
		return false
	}
	return strings.Contains(s, "$") || strings.Contains(s, ".")
}

// looksLikeCount reports whether a token reads as a plain integer
// count.
func looksLikeCount(s string) bool {
	s = strings.TrimSpace(s)
	return reCount.MatchString(s)
}

// parseMoney converts a currency cell to a float. Empty cells yield
// (nil, true); unparseable non-empty cells yield (nil, false) so the
// caller can drop the record instead of defaulting to zero.
func parseMoney(s string) (*float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil, true
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	if negative {
		val = -val
	}
	return &val, true
}

// parseCount converts a ticket-count cell to an integer, with the same
// empty/unparseable contract as parseMoney. Counts that arrive as
// "300.0" via spreadsheet float formatting are accepted when integral.
func parseCount(s string) (*int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil, true
	}
	s = strings.ReplaceAll(s, ",", "")
	if val, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &val, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return nil, false
	}
	val := int64(f)
	return &val, true
}
