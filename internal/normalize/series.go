package normalize

import (
	"regexp"
	"strings"
)

// SeriesUnassigned is the explicit sentinel for a series no heuristic
// could resolve. It is never silently replaced by a real series; rows
// carrying it are surfaced for manual correction.
const SeriesUnassigned = "Unassigned"

// titleSeriesPatterns map recognizable title prefixes to canonical
// series labels, the fallback when the extraction stage carried no
// usable section tag.
var titleSeriesPatterns = []struct {
	pattern *regexp.Regexp
	series  string
}{
	{regexp.MustCompile(`(?i)^(classical|cls\d|symphony)`), "Classical"},
	{regexp.MustCompile(`(?i)^pops\b`), "Pops"},
	{regexp.MustCompile(`(?i)^(family|fam\d)`), "Family"},
	{regexp.MustCompile(`(?i)^(holiday|christmas|nutcracker|messiah)`), "Holiday"},
	{regexp.MustCompile(`(?i)^chamber`), "Chamber"},
}

// genericTags are section labels too vague to count as resolved.
var genericTags = map[string]bool{
	"":        true,
	"unknown": true,
	"other":   true,
	"misc":    true,
	"tbd":     true,
}

// ResolveSeries produces the canonical series label. Precedence: the
// section tag captured during extraction, then title pattern matching,
// then the explicit Unassigned sentinel.
func ResolveSeries(sectionTag, title string) string {
	tag := strings.TrimSpace(sectionTag)
	if !genericTags[strings.ToLower(tag)] {
		return canonicalSeriesLabel(tag)
	}
	for _, p := range titleSeriesPatterns {
		if p.pattern.MatchString(strings.TrimSpace(title)) {
			return p.series
		}
	}
	return SeriesUnassigned
}

// canonicalSeriesLabel title-cases an all-caps section header:
// "CLASSICAL" becomes "Classical", "FAMILY & YOUTH" becomes
// "Family & Youth".
func canonicalSeriesLabel(tag string) string {
	words := strings.Fields(tag)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		if len(runes) > 0 && runes[0] >= 'a' && runes[0] <= 'z' {
			runes[0] = runes[0] - 'a' + 'A'
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
