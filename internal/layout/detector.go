package layout

import (
	"fmt"
	"log/slog"
	"strings"

	"tixcli/internal/document"
	tixerrors "tixcli/internal/errors"
	"tixcli/pkg/contracts/domain"
)

// headerWindow is how many leading rows may contain the header. Every
// observed report vintage keeps it inside the first six rows.
const headerWindow = 6

// Detector infers a Descriptor from a spreadsheet grid.
type Detector struct {
	logger *slog.Logger
}

// NewDetector creates a layout detector.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

// Detect locates the header row and resolves column offsets for each
// semantic field. Columns are resolved by label first; the repeated
// ACTUAL / # SOLD labels are disambiguated by position (first
// occurrence = single channel, second = subscription, third = total).
// When fewer than three occurrences are present the detector degrades
// rather than guessing across channels.
func (det *Detector) Detect(docName string, grid *document.Grid) (*Descriptor, error) {
	headerRow := -1
	limit := len(grid.Rows)
	if limit > headerWindow {
		limit = headerWindow
	}
	for i := 0; i < limit; i++ {
		for _, cell := range grid.Rows[i] {
			label := normalizeLabel(cell)
			if label == "date" || strings.Contains(label, "budget") {
				headerRow = i
				break
			}
		}
		if headerRow >= 0 {
			break
		}
	}
	if headerRow < 0 {
		return nil, tixerrors.NewLayoutUnresolved(docName,
			fmt.Sprintf("no header row within the first %d rows", headerWindow))
	}

	desc := newDescriptor(headerRow)
	det.resolveScalarFields(grid, desc, headerRow)
	det.resolveChannelFields(grid, desc, headerRow)

	for _, kind := range []domain.FieldKind{
		domain.FieldTitle, domain.FieldDate, domain.FieldBudget,
		domain.FieldSingleTickets, domain.FieldSingleRevenue,
		domain.FieldSubscriptionTickets, domain.FieldSubscriptionRevenue,
		domain.FieldTotalTickets, domain.FieldTotalRevenue,
	} {
		desc.markUnavailable(kind)
	}

	if unresolved := desc.Unavailable(); len(unresolved) > 0 {
		det.logger.Warn("layout resolved with unavailable fields",
			slog.String("document", docName),
			slog.Int("header_row", headerRow),
			slog.Any("unavailable", unresolved))
	}
	return desc, nil
}

// resolveScalarFields maps the single-occurrence labels: date, budget
// and the performance title column.
func (det *Detector) resolveScalarFields(grid *document.Grid, desc *Descriptor, headerRow int) {
	for _, row := range headerRows(grid, headerRow) {
		for col, cell := range grid.Rows[row] {
			label := normalizeLabel(cell)
			switch {
			case label == "date" || strings.Contains(label, "perf date"):
				if !desc.Available(domain.FieldDate) {
					desc.setOffset(domain.FieldDate, col)
				}
			case strings.Contains(label, "budget"):
				if !desc.Available(domain.FieldBudget) {
					desc.setOffset(domain.FieldBudget, col)
				}
			case strings.Contains(label, "performance") || strings.Contains(label, "program") ||
				strings.Contains(label, "event") || strings.Contains(label, "description"):
				if !desc.Available(domain.FieldTitle) {
					desc.setOffset(domain.FieldTitle, col)
				}
			}
		}
	}
	// Reports that never label the title column keep it leftmost.
	if !desc.Available(domain.FieldTitle) {
		desc.setOffset(domain.FieldTitle, 0)
	}
}

// resolveChannelFields assigns the repeated revenue and ticket-count
// labels to channels by occurrence order.
func (det *Detector) resolveChannelFields(grid *document.Grid, desc *Descriptor, headerRow int) {
	var revenueCols, ticketCols []int
	for _, row := range headerRows(grid, headerRow) {
		if len(revenueCols) > 0 || len(ticketCols) > 0 {
			// Header-row labels take precedence over the compound row.
			break
		}
		for col, cell := range grid.Rows[row] {
			label := normalizeLabel(cell)
			switch {
			case label == "actual" || strings.Contains(label, "actual"):
				revenueCols = append(revenueCols, col)
			case strings.Contains(label, "sold"):
				ticketCols = append(ticketCols, col)
			}
		}
	}

	assignChannels(desc, revenueCols,
		domain.FieldSingleRevenue, domain.FieldSubscriptionRevenue, domain.FieldTotalRevenue)
	assignChannels(desc, ticketCols,
		domain.FieldSingleTickets, domain.FieldSubscriptionTickets, domain.FieldTotalTickets)
}

// assignChannels applies the positional disambiguation policy. Three
// occurrences map cleanly to single/subscription/total. Two map to
// single/subscription with total left unresolved: attributing the
// second pair to total would silently cross channels. One occurrence
// is a summary-only layout and maps to total.
func assignChannels(desc *Descriptor, cols []int, single, subscription, total domain.FieldKind) {
	switch len(cols) {
	case 0:
		return
	case 1:
		desc.setOffset(total, cols[0])
	case 2:
		desc.setOffset(single, cols[0])
		desc.setOffset(subscription, cols[1])
	default:
		desc.setOffset(single, cols[0])
		desc.setOffset(subscription, cols[1])
		desc.setOffset(total, cols[2])
	}
}

// headerRows returns the rows to scan for labels: the header row
// itself and, for compound two-row headers, the row two above it.
func headerRows(grid *document.Grid, headerRow int) []int {
	rows := []int{headerRow}
	if headerRow >= 2 {
		rows = append(rows, headerRow-2)
	}
	return rows
}

func normalizeLabel(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}
