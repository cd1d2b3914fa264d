package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khamrai2017/finance-tracker/internal/domain/import/parser"
	importsvc "github.com/khamrai2017/finance-tracker/internal/domain/import/service"
)

func newExportCommand() *cobra.Command {
	var outPath string
	var accountID int64
	var accountName string

	cmd := &cobra.Command{
		Use:   "export <statement>",
		Short: "Stage a statement and write it out as CSV or XLSX for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps()
			if err != nil {
				return err
			}
			if accountID == 0 {
				accountID = d.Config.Import.DefaultAccountID
			}
			return runExport(cmd, d, args[0], outPath, accountID, accountName)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, .csv or .xlsx (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().Int64Var(&accountID, "account", 0, "account id to stage against")
	cmd.Flags().StringVar(&accountName, "account-name", "", "account name to stamp on every row")

	return cmd
}

func runExport(cmd *cobra.Command, d *deps, path, outPath string, accountID int64, accountName string) error {
	sheet, err := parseStatement(path)
	if err != nil {
		return err
	}
	mappings, err := d.Client.MerchantMappings(cmd.Context())
	if err != nil {
		// Export is useful offline too; fall back to staging without
		// merchant resolution.
		d.Logger.Warn("merchant mappings unavailable, exporting without resolution", "error", err)
		mappings = nil
	}

	session := d.Service.NewSession(sheet, mappings)
	if err := d.Service.Stage(session, importsvc.ApplyOptions{AccountID: accountID, AccountName: accountName}); err != nil {
		return err
	}
	records := importsvc.ExportRecords(session.Staged)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".csv":
		err = parser.WriteCSV(f, records)
	case ".xlsx":
		err = parser.WriteXLSX(f, records)
	default:
		return fmt.Errorf("unsupported export format %q", filepath.Ext(outPath))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(records), outPath)
	return nil
}
