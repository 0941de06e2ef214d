package normalize

import (
	"strings"
	"time"
	"unicode"
)

// codeTitleLength bounds the title component of a performance code.
const codeTitleLength = 12

// PerformanceCode derives the stable performance identity from the
// normalized title and the performance date. The same performance
// parsed from two different source documents yields the same code.
func PerformanceCode(title string, performanceDate time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() >= codeTitleLength {
			break
		}
	}
	normalized := b.String()
	if normalized == "" {
		normalized = "UNTITLED"
	}
	return normalized + "-" + performanceDate.Format("20060102")
}
