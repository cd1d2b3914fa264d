package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	importsvc "github.com/khamrai2017/finance-tracker/internal/domain/import/service"
)

type importFlags struct {
	accountID   int64
	accountName string
	categoryID  int64
	dryRun      bool
	loose       bool
	skipOthers  bool
	suggest     bool

	titleColumn       string
	amountColumn      string
	dateColumn        string
	debitCreditColumn string
	noteColumn        string
}

func newImportCommand() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <statement>",
		Short: "Stage a statement and commit it to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps()
			if err != nil {
				return err
			}
			return runImport(cmd, d, args[0], flags)
		},
	}

	cmd.Flags().Int64Var(&flags.accountID, "account", 0, "account id to book transactions against")
	cmd.Flags().StringVar(&flags.accountName, "account-name", "", "account name for display and export")
	cmd.Flags().Int64Var(&flags.categoryID, "category", 0, "fallback category id for rows the mappings leave uncategorized")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "stage and print without writing to the backend")
	cmd.Flags().BoolVar(&flags.loose, "loose", false, "preview with loose merchant matching (implies --dry-run)")
	cmd.Flags().BoolVar(&flags.skipOthers, "skip-incomplete", false, "commit only rows with an account and category assigned")
	cmd.Flags().BoolVar(&flags.suggest, "suggest", false, "print mapping suggestions for unmatched rows")

	cmd.Flags().StringVar(&flags.titleColumn, "title-column", "", "override the detected title column")
	cmd.Flags().StringVar(&flags.amountColumn, "amount-column", "", "override the detected amount column")
	cmd.Flags().StringVar(&flags.dateColumn, "date-column", "", "override the detected date column")
	cmd.Flags().StringVar(&flags.debitCreditColumn, "debit-credit-column", "", "override the detected debit/credit column")
	cmd.Flags().StringVar(&flags.noteColumn, "note-column", "", "override the detected note column")

	return cmd
}

func runImport(cmd *cobra.Command, d *deps, path string, flags importFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sheet, err := parseStatement(path)
	if err != nil {
		return err
	}
	mappings, err := d.Client.MerchantMappings(ctx)
	if err != nil {
		return fmt.Errorf("fetching merchant mappings: %w", err)
	}

	session := d.Service.NewSession(sheet, mappings)
	applyColumnOverrides(session, flags)

	if flags.accountID == 0 {
		flags.accountID = d.Config.Import.DefaultAccountID
	}
	dryRun := flags.dryRun || flags.loose

	opts := importsvc.ApplyOptions{
		AccountID:   flags.accountID,
		AccountName: flags.accountName,
		Loose:       flags.loose,
	}
	if flags.categoryID > 0 {
		opts.FallbackCategoryID = &flags.categoryID
	}
	if err := d.Service.Stage(session, opts); err != nil {
		return err
	}

	printStaged(out, session.Staged)

	if flags.suggest {
		printSuggestions(out, d, session)
	}
	if dryRun {
		fmt.Fprintln(out, "Dry run: nothing committed.")
		return nil
	}

	if flags.skipOthers {
		for i := range session.Staged {
			t := &session.Staged[i]
			if t.AccountID == 0 || t.CategoryID == nil {
				t.Selected = false
			}
		}
	}

	result, err := d.Service.Commit(ctx, session, d.Client)
	if err != nil {
		fmt.Fprintf(out, "Committed %d rows before failing; %d remain staged.\n",
			result.Created, result.Remaining)
		return err
	}
	fmt.Fprintf(out, "Committed %d rows; %d left staged.\n", result.Created, result.Remaining)
	return nil
}

func applyColumnOverrides(session *importsvc.Session, flags importFlags) {
	if flags.titleColumn != "" {
		session.Mapping.Title = flags.titleColumn
	}
	if flags.amountColumn != "" {
		session.Mapping.Amount = flags.amountColumn
	}
	if flags.dateColumn != "" {
		session.Mapping.Date = flags.dateColumn
	}
	if flags.debitCreditColumn != "" {
		session.Mapping.DebitCredit = flags.debitCreditColumn
	}
	if flags.noteColumn != "" {
		session.Mapping.Note = flags.noteColumn
	}
}

func printStaged(out io.Writer, staged []importsvc.StagedTransaction) {
	fmt.Fprintf(out, "%-12s %-30s %12s %-8s %-16s %s\n",
		"DATE", "TITLE", "AMOUNT", "TYPE", "CATEGORY", "MATCH")
	for _, t := range staged {
		kind := "expense"
		if t.IsIncome {
			kind = "income"
		}
		fmt.Fprintf(out, "%-12s %-30s %12s %-8s %-16s %s\n",
			t.Date.Format(time.DateOnly),
			truncate(t.Title, 30),
			t.Amount.StringFixed(2),
			kind,
			truncate(t.CategoryName, 16),
			t.MatchStrategy)
	}
}

func printSuggestions(out io.Writer, d *deps, session *importsvc.Session) {
	threshold := d.Config.Import.SuggestionThreshold
	limit := d.Config.Import.SuggestionLimit
	for i, t := range session.Staged {
		if t.CategoryID != nil {
			continue
		}
		suggestions, err := d.Service.Suggestions(session, i, threshold, limit)
		if err != nil || len(suggestions) == 0 {
			continue
		}
		fmt.Fprintf(out, "Suggestions for %q:\n", t.OriginalTitle)
		for _, s := range suggestions {
			fmt.Fprintf(out, "  %3d%%  %s (%s)\n", s.Score, s.Mapping.MappedTitle, s.Mapping.CategoryName)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
