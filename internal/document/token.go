// Package document turns raw sales-report files into positional token
// streams. Spreadsheets become cell grids with preserved empty cells;
// PDFs become ordered text runs with page and row coordinates. Tokens
// are ephemeral: they live only for the duration of one document's
// processing and are never persisted.
package document

import "time"

// Kind tags the document format. The tag is assigned once at the
// boundary (file discovery) and never re-inferred downstream.
type Kind string

const (
	KindSpreadsheet Kind = "spreadsheet"
	KindPDF         Kind = "pdf"
)

// Document is a discovered input file with its resolved snapshot date.
type Document struct {
	Path         string
	Name         string
	Kind         Kind
	SnapshotDate time.Time
}

// Token is one decoded text run from a PDF page. Ordering follows the
// reading order emitted by the text layer.
type Token struct {
	Text string
	Page int
	Row  int
}

// Grid is a spreadsheet sheet as a dense cell matrix. Every row is
// padded to the grid width so empty cells keep their positions; the
// layout detector's column-offset arithmetic depends on that.
type Grid struct {
	Sheet string
	Rows  [][]string
}

// Cell returns the trimmed-at-source cell text, or "" when the address
// is out of range.
func (g *Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.Rows) {
		return ""
	}
	r := g.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Width returns the number of columns in the padded grid.
func (g *Grid) Width() int {
	if len(g.Rows) == 0 {
		return 0
	}
	return len(g.Rows[0])
}
