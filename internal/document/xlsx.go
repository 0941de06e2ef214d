package document

import (
	"strings"

	"github.com/xuri/excelize/v2"

	tixerrors "tixcli/internal/errors"
)

// headerLabels are field names whose presence in the first few rows of
// a sheet marks it as a sales-data sheet.
var headerLabels = []string{"date", "budget", "actual", "# sold", "sold"}

// TokenizeWorkbook opens an xlsx workbook and returns the sales sheet
// as a dense cell grid. Sheet selection prefers the sheet whose header
// window contains a recognizable field label; otherwise the first
// non-empty sheet is used.
func TokenizeWorkbook(path string) (*Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, tixerrors.NewDocumentUnreadable(path, err)
	}
	defer f.Close()

	var fallback *Grid
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		grid := padGrid(name, rows)
		if sheetLooksLikeSalesData(grid) {
			return grid, nil
		}
		if fallback == nil {
			fallback = grid
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, tixerrors.NewDocumentUnreadable(path, nil)
}

// padGrid pads every row to the widest row so that empty trailing cells
// keep their column positions. excelize trims trailing empties per row.
func padGrid(sheet string, rows [][]string) *Grid {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	padded := make([][]string, len(rows))
	for i, row := range rows {
		padded[i] = make([]string, width)
		copy(padded[i], row)
	}
	return &Grid{Sheet: sheet, Rows: padded}
}

// sheetLooksLikeSalesData scans the header window for a known field
// label.
func sheetLooksLikeSalesData(g *Grid) bool {
	limit := len(g.Rows)
	if limit > 6 {
		limit = 6
	}
	for i := 0; i < limit; i++ {
		rowText := strings.ToLower(strings.Join(g.Rows[i], " "))
		for _, label := range headerLabels {
			if strings.Contains(rowText, label) {
				return true
			}
		}
	}
	return false
}
