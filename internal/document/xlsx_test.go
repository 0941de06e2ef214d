package document

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	tixerrors "tixcli/internal/errors"
)

// buildWorkbook writes rows into a temp xlsx file and returns its path.
func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheet)
	for i, row := range rows {
		for j, val := range row {
			if val == nil {
				continue
			}
			col, err := excelize.ColumnNumberToName(j + 1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, col+strconv.Itoa(i+1), val))
		}
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestTokenizeWorkbook_PadsEmptyCells(t *testing.T) {
	path := buildWorkbook(t, "FY25", [][]interface{}{
		{"", "DATE", "BUDGET", "ACTUAL"},
		{"Concert A", "11/1/2024", nil, 9000},
	})

	grid, err := TokenizeWorkbook(path)
	require.NoError(t, err)

	// Every row is padded to the grid width; the empty budget cell in
	// the data row keeps its position.
	assert.Equal(t, 4, grid.Width())
	for _, row := range grid.Rows {
		assert.Len(t, row, 4)
	}
	assert.Equal(t, "", grid.Cell(1, 2))
	assert.Equal(t, "9000", grid.Cell(1, 3))
}

func TestTokenizeWorkbook_PrefersSheetWithHeaderLabels(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Notes")
	require.NoError(t, f.SetCellValue("Notes", "A1", "internal memo"))
	_, err := f.NewSheet("Sales")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Sales", "A2", "DATE"))
	require.NoError(t, f.SetCellValue("Sales", "B2", "BUDGET"))
	path := filepath.Join(t.TempDir(), "multi.xlsx")
	require.NoError(t, f.SaveAs(path))

	grid, err := TokenizeWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, "Sales", grid.Sheet)
}

func TestTokenizeWorkbook_Unreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-workbook.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip archive"), 0644))

	_, err := TokenizeWorkbook(path)
	require.Error(t, err)
	assert.True(t, tixerrors.IsCode(err, tixerrors.CodeDocumentUnreadable))
}

func TestGridCellOutOfRange(t *testing.T) {
	g := &Grid{Rows: [][]string{{"a"}}}
	assert.Equal(t, "", g.Cell(-1, 0))
	assert.Equal(t, "", g.Cell(0, 5))
	assert.Equal(t, "a", g.Cell(0, 0))
}
