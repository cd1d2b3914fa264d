package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	importsvc "github.com/khamrai2017/finance-tracker/internal/domain/import/service"
	"github.com/khamrai2017/finance-tracker/internal/domain/reconcile"
)

func newReconcileCommand() *cobra.Command {
	var accountID int64
	var deleteDuplicates bool

	cmd := &cobra.Command{
		Use:   "reconcile <statement>",
		Short: "Check a statement against already stored transactions",
		Long: "Stages the statement, loads the stored transactions covering the same " +
			"date range and reports which rows already exist in the backend.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps()
			if err != nil {
				return err
			}
			return runReconcile(cmd, d, args[0], accountID, deleteDuplicates)
		},
	}

	cmd.Flags().Int64Var(&accountID, "account", 0, "account id to reconcile against (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().BoolVar(&deleteDuplicates, "delete-duplicates", false, "delete the stored copy of every matched row")

	return cmd
}

func runReconcile(cmd *cobra.Command, d *deps, path string, accountID int64, deleteDuplicates bool) error {
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
	if err := d.Service.Stage(session, importsvc.ApplyOptions{AccountID: accountID}); err != nil {
		return err
	}
	from, to, ok := importsvc.DateRange(session.Staged)
	if !ok {
		return fmt.Errorf("statement staged no rows")
	}

	engine := reconcile.NewEngine(d.Client, d.Logger)
	stored, err := engine.LoadWindow(ctx, accountID, from, to)
	if err != nil {
		return err
	}
	results := engine.Reconcile(session.Staged, stored)

	matched := 0
	for _, r := range results {
		status := "new"
		if r.Matched {
			status = fmt.Sprintf("duplicate of #%d", r.Stored.ID)
			matched++
		}
		fmt.Fprintf(out, "%-12s %-30s %12s  %s\n",
			r.Staged.Date.Format(time.DateOnly),
			truncate(r.Staged.Title, 30),
			r.Staged.Amount.StringFixed(2),
			status)
	}
	fmt.Fprintf(out, "%d of %d rows already stored.\n", matched, len(results))

	if !deleteDuplicates {
		return nil
	}
	for _, r := range results {
		if !r.Matched {
			continue
		}
		if err := engine.DeleteMatched(ctx, r); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Deleted %d stored duplicates.\n", matched)
	return nil
}
