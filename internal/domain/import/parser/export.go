package parser

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// ExportRecord is one staged transaction flattened for review outside the
// tool. Amounts are preformatted strings so spreadsheet software does not
// reapply its own rounding.
type ExportRecord struct {
	Date          string `csv:"date"`
	Title         string `csv:"title"`
	OriginalTitle string `csv:"original_title"`
	Amount        string `csv:"amount"`
	Type          string `csv:"type"`
	Category      string `csv:"category"`
	Account       string `csv:"account"`
	Note          string `csv:"note"`
}

var exportHeaders = []string{
	"date", "title", "original_title", "amount", "type", "category", "account", "note",
}

// WriteCSV writes records as a comma-delimited file with a header row.
func WriteCSV(w io.Writer, records []ExportRecord) error {
	if err := gocsv.Marshal(&records, w); err != nil {
		return fmt.Errorf("writing csv export: %w", err)
	}
	return nil
}

// WriteXLSX writes records to a single-sheet workbook named "Transactions".
func WriteXLSX(w io.Writer, records []ExportRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	f.SetSheetName(f.GetSheetName(0), sheet)

	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+2, err)
		}
		row := []any{r.Date, r.Title, r.OriginalTitle, r.Amount, r.Type, r.Category, r.Account, r.Note}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing export row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx export: %w", err)
	}
	return nil
}
