package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/khamrai2017/finance-tracker/internal/domain/import/sniffer"
)

// ParseXLSX reads the first worksheet of an Excel statement. Cells are read
// with their formatted values, so dates may arrive either as text or as raw
// serial numbers depending on how the bank generated the file; the caller's
// date parsing handles both.
func ParseXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	header := findXLSXHeader(rows)
	if header < 0 || len(rows) <= header {
		return nil, ErrEmptyFile
	}
	return buildSheet(rows[header], rows[header+1:])
}

// findXLSXHeader locates the header row in a worksheet the same way the CSV
// path does: the row with the most recognizable header cells wins, earliest
// on a tie. Returns -1 for a sheet with no non-empty rows.
func findXLSXHeader(rows [][]string) int {
	bestIdx, bestScore := -1, -1
	for i, row := range rows {
		if i >= 20 {
			break
		}
		score, nonEmpty := 0, 0
		for _, cell := range row {
			if cell == "" {
				continue
			}
			nonEmpty++
			if sniffer.IsKnownHeader(cell) {
				score++
			}
		}
		if nonEmpty == 0 {
			continue
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx
}
