package document

import (
	"strings"

	"github.com/ledongthuc/pdf"

	tixerrors "tixcli/internal/errors"
)

// TokenizePDF extracts the ordered text runs of a PDF report. Each run
// carries its page number and a monotonically increasing row index so
// the extractor's grammar can group runs that were laid out on one
// physical line.
func TokenizePDF(path string) ([]Token, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, tixerrors.NewDocumentUnreadable(path, err)
	}
	defer f.Close()

	var tokens []Token
	rowIndex := 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			// A single undecodable page does not fail the document;
			// remaining pages may still carry data rows.
			continue
		}
		for _, row := range rows {
			emitted := false
			for _, word := range row.Content {
				text := strings.TrimSpace(word.S)
				if text == "" {
					continue
				}
				tokens = append(tokens, Token{Text: text, Page: pageNum, Row: rowIndex})
				emitted = true
			}
			if emitted {
				rowIndex++
			}
		}
	}
	if len(tokens) == 0 {
		return nil, tixerrors.NewDocumentUnreadable(path, nil)
	}
	return tokens, nil
}
