package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"tixcli/internal/document"
	tixerrors "tixcli/internal/errors"
	"tixcli/pkg/contracts/domain"
)

// perfCodeShape matches the short alphanumeric identifiers the vendor
// prints at the start of each performance line, e.g. CL03, POPS12, FAM2.
var perfCodeShape = regexp.MustCompile(`^[A-Z]{2,5}\d{1,4}[A-Z]?$`)

// dateShape matches the date token that follows the code: 11/01/24,
// 11/1/2024, or a month-name form like "Nov 1".
var dateShape = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$|^(?i:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z.]*\s*\d{0,2}$`)

// timeShape matches the optional curtain-time token after the date.
var timeShape = regexp.MustCompile(`^\d{1,2}:\d{2}\s*(?i:am|pm)?$`)

// dayRangeShape matches the day part of a split month-name date, e.g.
// "1-3" or "1&3".
var dayRangeShape = regexp.MustCompile(`^\d{1,2}([&,\-]\d{1,2})*$`)

// maxFieldRun bounds how many tokens after the date are considered part
// of one performance line.
const maxFieldRun = 12

// PDFExtractor applies the vendor report's fixed grammar: a
// performance-code shaped token (not preceded by "Total") opens a
// record, followed by a date/time and per-channel count/revenue pairs
// in a known order. A reserved/comp count may appear without a paired
// amount and shifts the following offsets, so tokens are classified as
// money versus count rather than read at fixed positions.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates a PDF report extractor.
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

// Extract scans the token stream for performance lines and emits one
// SalesRecord each. Lines whose numeric run cannot be decoded are
// dropped and reported with their token position.
func (e *PDFExtractor) Extract(doc document.Document, tokens []document.Token) ([]domain.SalesRecord, []error) {
	var records []domain.SalesRecord
	var dropped []error

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !perfCodeShape.MatchString(tok.Text) {
			continue
		}
		if i > 0 && strings.EqualFold(tokens[i-1].Text, "total") {
			continue
		}

		record, consumed, err := e.consumeLine(doc, tokens, i)
		if err != nil {
			dropped = append(dropped, err)
			e.logger.Warn("dropped malformed performance line",
				slog.String("document", doc.Name),
				slog.String("code", tok.Text),
				slog.Int("token_index", i),
				slog.String("reason", err.Error()))
			continue
		}
		records = append(records, *record)
		i += consumed
	}
	return records, dropped
}

// consumeLine reads one performance line starting at the code token.
// It returns the record and how many tokens past the code were used.
func (e *PDFExtractor) consumeLine(doc document.Document, tokens []document.Token, codeIdx int) (*domain.SalesRecord, int, error) {
	code := tokens[codeIdx]

	// The date token must appear shortly after the code; intervening
	// text tokens are the performance title.
	dateIdx := -1
	var titleWords []string
	limit := codeIdx + 8
	if limit > len(tokens) {
		limit = len(tokens)
	}
	for j := codeIdx + 1; j < limit; j++ {
		if dateShape.MatchString(tokens[j].Text) {
			dateIdx = j
			break
		}
		titleWords = append(titleWords, tokens[j].Text)
	}
	if dateIdx < 0 {
		return nil, 0, tixerrors.NewRecordMalformed(doc.Name, code.Row,
			"no date token after performance code "+code.Text)
	}
	dateRaw := tokens[dateIdx].Text

	// Month-name dates split across two tokens ("Nov" then "1-3").
	next := dateIdx + 1
	if next < len(tokens) && isMonthWord(dateRaw) && looksLikeDayRange(tokens[next].Text) {
		dateRaw = dateRaw + " " + tokens[next].Text
		next++
	}
	if next < len(tokens) && timeShape.MatchString(tokens[next].Text) {
		next++
	}

	pairs, skippedCounts, consumed := collectPairs(tokens, next)
	if len(pairs) == 0 {
		return nil, 0, tixerrors.NewRecordMalformed(doc.Name, code.Row,
			"no count/revenue pairs after performance code "+code.Text)
	}

	title := strings.TrimSpace(strings.Join(titleWords, " "))
	if title == "" {
		title = code.Text
	}

	record := &domain.SalesRecord{
		Title:          title,
		DateRaw:        dateRaw,
		SourceDocument: doc.Name,
		SourceRow:      code.Row,
	}

	// Known channel order: fixed, non-fixed, single, then the line
	// total. Fixed and non-fixed subscriptions fold into the canonical
	// subscription channel. Anything short of the full four pairs is
	// taken as total-only: under-population is safer than guessing
	// which channels the missing pairs were.
	if len(pairs) >= 4 {
		sub := pairs[0].add(pairs[1])
		record.SubscriptionTickets = &sub.count
		record.SubscriptionRevenue = &sub.money
		record.SingleTickets = &pairs[2].count
		record.SingleRevenue = &pairs[2].money
		record.TotalTickets = &pairs[3].count
		record.TotalRevenue = &pairs[3].money
	} else {
		last := pairs[len(pairs)-1]
		record.TotalTickets = &last.count
		record.TotalRevenue = &last.money
		if len(pairs) > 1 {
			e.logger.Debug("partial channel pairs, keeping total only",
				slog.String("document", doc.Name),
				slog.String("code", code.Text),
				slog.Int("pairs", len(pairs)))
		}
	}
	if skippedCounts > 0 {
		e.logger.Debug("skipped unpaired reserved/comp counts",
			slog.String("document", doc.Name),
			slog.String("code", code.Text),
			slog.Int("skipped", skippedCounts))
	}

	return record, consumed - codeIdx, nil
}

type channelPair struct {
	count int64
	money float64
}

func (p channelPair) add(other channelPair) channelPair {
	return channelPair{count: p.count + other.count, money: p.money + other.money}
}

// collectPairs walks the numeric run following the date, pairing each
// ticket count with the revenue amount that follows it. A count
// followed by another count is the conditional reserved/comp field; it
// has no amount and is skipped. The walk stops at the first token that
// is neither money nor count, or after maxFieldRun tokens.
func collectPairs(tokens []document.Token, start int) ([]channelPair, int, int) {
	var pairs []channelPair
	skipped := 0
	j := start
	end := start + maxFieldRun
	if end > len(tokens) {
		end = len(tokens)
	}
	for j < end {
		text := tokens[j].Text
		if looksLikeMoney(text) {
			// An amount without a preceding count ends the run.
			break
		}
		if !looksLikeCount(text) {
			break
		}
		count, ok := parseCount(text)
		if !ok || count == nil {
			break
		}
		if j+1 < end && looksLikeMoney(tokens[j+1].Text) {
			money, ok := parseMoney(tokens[j+1].Text)
			if !ok || money == nil {
				break
			}
			pairs = append(pairs, channelPair{count: *count, money: *money})
			j += 2
			continue
		}
		// Count with no amount: the reserved/comp line.
		skipped++
		j++
	}
	return pairs, skipped, j - 1
}

func isMonthWord(s string) bool {
	s = strings.ToLower(strings.TrimRight(s, "."))
	months := []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	for _, m := range months {
		if strings.HasPrefix(s, m) {
			return true
		}
	}
	return false
}

func looksLikeDayRange(s string) bool {
	return dayRangeShape.MatchString(s)
}
