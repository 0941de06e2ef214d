package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tixcli/internal/document"
	tixerrors "tixcli/internal/errors"
)

func pdfTokens(texts ...string) []document.Token {
	tokens := make([]document.Token, len(texts))
	for i, text := range texts {
		tokens[i] = document.Token{Text: text, Page: 1, Row: i / 12}
	}
	return tokens
}

func pdfDoc() document.Document {
	return document.Document{Name: "report.pdf", Kind: document.KindPDF}
}

func TestPDFExtract_FullChannelLine(t *testing.T) {
	// fixed, non-fixed, single, total pairs.
	tokens := pdfTokens(
		"CL03", "Beethoven", "Nine", "11/01/24", "8:00PM",
		"120", "4000.00", "30", "1000.00", "90", "3000.00", "240", "8000.00",
	)

	records, dropped := NewPDFExtractor(nil).Extract(pdfDoc(), tokens)
	require.Empty(t, dropped)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Beethoven Nine", r.Title)
	assert.Equal(t, "11/01/24", r.DateRaw)
	// Fixed and non-fixed fold into the subscription channel.
	require.NotNil(t, r.SubscriptionTickets)
	assert.Equal(t, int64(150), *r.SubscriptionTickets)
	assert.Equal(t, 5000.0, *r.SubscriptionRevenue)
	assert.Equal(t, int64(90), *r.SingleTickets)
	assert.Equal(t, 3000.0, *r.SingleRevenue)
	assert.Equal(t, int64(240), *r.TotalTickets)
	assert.Equal(t, 8000.0, *r.TotalRevenue)
}

func TestPDFExtract_ConditionalCompLineShiftsFields(t *testing.T) {
	// The unpaired "15" between single and total is the reserved/comp
	// count; it has no revenue amount and must not derail the pairing.
	tokens := pdfTokens(
		"POPS12", "Holiday", "12/14/24",
		"200", "9000.00", "40", "1500.00", "300", "12000.00", "15", "540", "22500.00",
	)

	records, dropped := NewPDFExtractor(nil).Extract(pdfDoc(), tokens)
	require.Empty(t, dropped)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, int64(240), *r.SubscriptionTickets)
	assert.Equal(t, int64(300), *r.SingleTickets)
	assert.Equal(t, int64(540), *r.TotalTickets)
	assert.Equal(t, 22500.0, *r.TotalRevenue)
}

func TestPDFExtract_CodeAfterTotalIgnored(t *testing.T) {
	tokens := pdfTokens(
		"Total", "CL03", "999", "9999.00",
		"CL04", "Brahms", "03/08/25", "100", "4000.00",
	)

	records, dropped := NewPDFExtractor(nil).Extract(pdfDoc(), tokens)
	require.Empty(t, dropped)
	require.Len(t, records, 1)
	assert.Equal(t, "Brahms", records[0].Title)
}

func TestPDFExtract_PartialPairsKeepTotalOnly(t *testing.T) {
	// Two pairs cannot be attributed to channels; the last is the total.
	tokens := pdfTokens(
		"FAM2", "Carnival", "04/12/25", "80", "2400.00", "200", "6000.00",
	)

	records, dropped := NewPDFExtractor(nil).Extract(pdfDoc(), tokens)
	require.Empty(t, dropped)
	require.Len(t, records, 1)

	r := records[0]
	assert.Nil(t, r.SingleTickets)
	assert.Nil(t, r.SubscriptionTickets)
	assert.Equal(t, int64(200), *r.TotalTickets)
	assert.Equal(t, 6000.0, *r.TotalRevenue)
}

func TestPDFExtract_NoNumbersDropsLine(t *testing.T) {
	tokens := pdfTokens(
		"CL05", "Mahler", "05/02/25", "see", "addendum",
		"CL06", "Sibelius", "05/09/25", "100", "4000.00",
	)

	records, dropped := NewPDFExtractor(nil).Extract(pdfDoc(), tokens)
	require.Len(t, records, 1)
	assert.Equal(t, "Sibelius", records[0].Title)

	require.Len(t, dropped, 1)
	assert.True(t, tixerrors.IsCode(dropped[0], tixerrors.CodeRecordMalformed))
}

func TestPDFExtract_MissingDateDropsLine(t *testing.T) {
	tokens := pdfTokens(
		"CL07", "words", "only", "here", "nothing", "dated", "at", "all", "ever", "anywhere",
	)

	records, dropped := NewPDFExtractor(nil).Extract(pdfDoc(), tokens)
	assert.Empty(t, records)
	require.Len(t, dropped, 1)
	assert.Contains(t, dropped[0].Error(), "no date token")
}

func TestPDFExtract_SplitMonthNameDate(t *testing.T) {
	tokens := pdfTokens(
		"CL08", "Test", "Concert", "Nov.", "1-3", "300", "9000.00",
	)

	records, dropped := NewPDFExtractor(nil).Extract(pdfDoc(), tokens)
	require.Empty(t, dropped)
	require.Len(t, records, 1)
	assert.Equal(t, "Nov. 1-3", records[0].DateRaw)
	assert.Equal(t, int64(300), *records[0].TotalTickets)
}
