package extract

import (
	"log/slog"
	"strings"

	"tixcli/internal/document"
	tixerrors "tixcli/internal/errors"
	"tixcli/internal/layout"
	"tixcli/pkg/contracts/domain"
)

// skipPatterns are row labels that never carry performance data.
var skipPatterns = map[string]bool{
	"open":           true,
	"total":          true,
	"recording week": true,
}

// SheetExtractor walks spreadsheet rows below the detected header and
// emits one SalesRecord per performance row, tagged with the series
// section it appears under.
type SheetExtractor struct {
	logger *slog.Logger
}

// NewSheetExtractor creates a spreadsheet extractor.
func NewSheetExtractor(logger *slog.Logger) *SheetExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetExtractor{logger: logger}
}

// Extract produces raw records from the grid using the descriptor's
// column offsets. Rows whose resolved numeric cells fail to parse are
// dropped and reported, never zero-defaulted.
func (e *SheetExtractor) Extract(doc document.Document, grid *document.Grid, desc *layout.Descriptor) ([]domain.SalesRecord, []error) {
	var records []domain.SalesRecord
	var dropped []error
	currentSeries := ""

	titleCol, _ := desc.Offset(domain.FieldTitle)

	for row := desc.DataStart; row < len(grid.Rows); row++ {
		title := strings.TrimSpace(grid.Cell(row, titleCol))

		if rowBlank(grid.Rows[row]) {
			continue
		}
		if skipPatterns[strings.ToLower(title)] {
			continue
		}

		// A section header names the series for the rows that follow.
		// Data rows always carry a date, so a marker match with an
		// empty date cell is a section boundary, and an aggregate row
		// like "CLASSICAL TOTAL" updates the series while its numbers
		// are skipped.
		if label, ok := desc.SectionLabel(title); ok {
			if dateCol, hasDate := desc.Offset(domain.FieldDate); !hasDate || strings.TrimSpace(grid.Cell(row, dateCol)) == "" || strings.HasSuffix(strings.ToUpper(title), "TOTAL") {
				currentSeries = label
				continue
			}
		}

		record, err := e.readRow(doc, grid, desc, row, title, currentSeries)
		if err != nil {
			dropped = append(dropped, err)
			e.logger.Warn("dropped malformed row",
				slog.String("document", doc.Name),
				slog.Int("row", row),
				slog.String("reason", err.Error()))
			continue
		}
		if record.Empty() {
			e.logger.Debug("discarded row without any sales figures",
				slog.String("document", doc.Name),
				slog.Int("row", row))
			continue
		}
		records = append(records, *record)
	}
	return records, dropped
}

func (e *SheetExtractor) readRow(doc document.Document, grid *document.Grid, desc *layout.Descriptor, row int, title, series string) (*domain.SalesRecord, error) {
	record := &domain.SalesRecord{
		Title:          title,
		SeriesRaw:      series,
		SourceDocument: doc.Name,
		SourceRow:      row,
	}

	if col, ok := desc.Offset(domain.FieldDate); ok {
		record.DateRaw = strings.TrimSpace(grid.Cell(row, col))
	}

	moneyFields := []struct {
		kind domain.FieldKind
		dst  **float64
	}{
		{domain.FieldBudget, &record.Budget},
		{domain.FieldSingleRevenue, &record.SingleRevenue},
		{domain.FieldSubscriptionRevenue, &record.SubscriptionRevenue},
		{domain.FieldTotalRevenue, &record.TotalRevenue},
	}
	for _, field := range moneyFields {
		col, ok := desc.Offset(field.kind)
		if !ok {
			continue
		}
		val, parsed := parseMoney(grid.Cell(row, col))
		if !parsed {
			return nil, tixerrors.NewRecordMalformed(doc.Name, row,
				"cell for "+string(field.kind)+" is not a money amount: "+grid.Cell(row, col))
		}
		*field.dst = val
	}

	countFields := []struct {
		kind domain.FieldKind
		dst  **int64
	}{
		{domain.FieldSingleTickets, &record.SingleTickets},
		{domain.FieldSubscriptionTickets, &record.SubscriptionTickets},
		{domain.FieldTotalTickets, &record.TotalTickets},
	}
	for _, field := range countFields {
		col, ok := desc.Offset(field.kind)
		if !ok {
			continue
		}
		val, parsed := parseCount(grid.Cell(row, col))
		if !parsed {
			return nil, tixerrors.NewRecordMalformed(doc.Name, row,
				"cell for "+string(field.kind)+" is not a ticket count: "+grid.Cell(row, col))
		}
		*field.dst = val
	}

	return record, nil
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
