package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/khamrai2017/finance-tracker/internal/domain/import/normalizer"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/parser"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/sniffer"
)

func newAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <statement>",
		Short: "Inspect a statement file and show the detected layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps()
			if err != nil {
				return err
			}
			return runAnalyze(cmd, d, args[0])
		},
	}
}

func runAnalyze(cmd *cobra.Command, d *deps, path string) error {
	sheet, err := parseStatement(path)
	if err != nil {
		return err
	}

	session := d.Service.NewSession(sheet, nil)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Rows: %d\n", len(sheet.Rows))
	fmt.Fprintf(out, "Headers: %v\n", sheet.Headers)
	fmt.Fprintln(out, "Detected columns:")
	fmt.Fprintf(out, "  title:        %s\n", orUnset(session.Mapping.Title))
	fmt.Fprintf(out, "  amount:       %s\n", orUnset(session.Mapping.Amount))
	fmt.Fprintf(out, "  date:         %s\n", orUnset(session.Mapping.Date))
	fmt.Fprintf(out, "  debit/credit: %s\n", orUnset(session.Mapping.DebitCredit))
	fmt.Fprintf(out, "  note:         %s\n", orUnset(session.Mapping.Note))

	if missing := session.Mapping.Missing(); len(missing) > 0 {
		fmt.Fprintf(out, "Missing required columns: %v\n", missing)
		return nil
	}
	if from, to, ok := sheetDateRange(sheet, session.Mapping); ok {
		fmt.Fprintf(out, "Date range: %s to %s\n",
			from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return nil
}

// sheetDateRange scans the mapped date column without staging anything, so
// analyze stays read-only and needs no account.
func sheetDateRange(sheet *parser.Sheet, mapping sniffer.ColumnMapping) (from, to time.Time, ok bool) {
	if mapping.Date == "" {
		return from, to, false
	}
	fallback := time.Now()
	for _, row := range sheet.Rows {
		d := normalizer.ParseFlexibleDate(sheet.Cell(row, mapping.Date), fallback)
		if !ok || d.Before(from) {
			from = d
		}
		if !ok || d.After(to) {
			to = d
		}
		ok = true
	}
	return from, to, ok
}

func orUnset(header string) string {
	if header == "" {
		return "(not detected)"
	}
	return header
}
