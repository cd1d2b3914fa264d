// Package parser turns raw statement files (CSV and XLSX) into a uniform
// in-memory Sheet and writes staged transactions back out for review.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/khamrai2017/finance-tracker/internal/domain/import/sniffer"
)

// ErrEmptyFile is returned when a statement contains no data rows at all.
var ErrEmptyFile = errors.New("statement file has no data rows")

// Row maps a header name to the cell value in that column. Cells beyond the
// header width are dropped; short rows leave the remaining headers empty.
type Row map[string]string

// Sheet is a parsed statement: the header row and every data row under it.
// Headers keep their original spelling so mappings can refer to them exactly
// as the user sees them.
type Sheet struct {
	Headers []string
	Rows    []Row
}

// Cell returns the value under header for the given row, empty if unmapped.
func (s *Sheet) Cell(row Row, header string) string {
	if header == "" {
		return ""
	}
	return row[header]
}

// ParseCSV reads a delimited statement export. Layout detection handles
// letterhead lines above the header and non-comma delimiters; rows whose
// cells are all blank are skipped.
func ParseCSV(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	cfg := sniffer.DetectLayout(data)

	cr := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff")))
	cr.Comma = cfg.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) <= cfg.HeaderRow {
		return nil, ErrEmptyFile
	}
	return buildSheet(records[cfg.HeaderRow], records[cfg.HeaderRow+1:])
}

func buildSheet(headers []string, records [][]string) (*Sheet, error) {
	sheet := &Sheet{Headers: make([]string, len(headers))}
	for i, h := range headers {
		sheet.Headers[i] = strings.TrimSpace(h)
	}

	for _, record := range records {
		row := make(Row, len(sheet.Headers))
		empty := true
		for i, header := range sheet.Headers {
			if header == "" {
				continue
			}
			var v string
			if i < len(record) {
				v = strings.TrimSpace(record[i])
			}
			row[header] = v
			if v != "" {
				empty = false
			}
		}
		if !empty {
			sheet.Rows = append(sheet.Rows, row)
		}
	}
	if len(sheet.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return sheet, nil
}
