// Package reconcile checks freshly staged statement rows against the
// transactions the backend already stores, so re-imports of an overlapping
// statement do not create duplicates.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khamrai2017/finance-tracker/internal/client"
	importsvc "github.com/khamrai2017/finance-tracker/internal/domain/import/service"
)

// TransactionStore is the slice of the backend client reconciliation needs.
type TransactionStore interface {
	Transactions(ctx context.Context, accountID int64) ([]client.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, update client.TransactionCreate) (client.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// Engine compares staged rows against stored transactions.
type Engine struct {
	store  TransactionStore
	logger *slog.Logger
}

func NewEngine(store TransactionStore, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// MatchResult pairs a staged row with the stored transaction it duplicates,
// if any. Stored is nil when the row is new.
type MatchResult struct {
	Staged  importsvc.StagedTransaction
	Matched bool
	Stored  *client.Transaction
}

// amountTolerance mirrors the matcher's: two independently rounded amounts
// within a paisa are the same amount.
var amountTolerance = decimal.NewFromFloat(0.01)

// LoadWindow fetches the account's stored transactions and keeps those whose
// date falls inside [from, to], both ends inclusive. Filtering happens here
// because the backend's list endpoint has no date parameters.
func (e *Engine) LoadWindow(ctx context.Context, accountID int64, from, to time.Time) ([]client.Transaction, error) {
	all, err := e.store.Transactions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading transactions for account %d: %w", accountID, err)
	}
	windowed := make([]client.Transaction, 0, len(all))
	for _, t := range all {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		windowed = append(windowed, t)
	}
	e.logger.Debug("reconciliation window loaded",
		slog.Int64("account_id", accountID),
		slog.Int("stored", len(all)),
		slog.Int("in_window", len(windowed)))
	return windowed, nil
}

// Reconcile matches every staged row against the stored window. Each row is
// an independent existence check: the first stored transaction that compares
// equal is taken, with no claiming or ranking, so two identical staged rows
// both flag against the same stored transaction.
func (e *Engine) Reconcile(staged []importsvc.StagedTransaction, stored []client.Transaction) []MatchResult {
	results := make([]MatchResult, len(staged))
	for i, s := range staged {
		results[i] = MatchResult{Staged: s}
		for j := range stored {
			if Compare(s, stored[j]) {
				results[i].Matched = true
				results[i].Stored = &stored[j]
				break
			}
		}
	}
	return results
}

// Compare reports whether a staged row and a stored transaction describe the
// same real-world payment: amounts equal within tolerance and one title
// containing the other, case-insensitively. The staged row's original
// statement text is checked as well as its cleaned title, because whichever
// of the two was committed earlier is what the backend now stores.
func Compare(s importsvc.StagedTransaction, stored client.Transaction) bool {
	if !s.Amount.Sub(stored.Amount.Abs()).Abs().LessThan(amountTolerance) {
		return false
	}
	storedTitle := strings.ToLower(strings.TrimSpace(stored.Title))
	if storedTitle == "" {
		return false
	}
	for _, candidate := range []string{s.Title, s.OriginalTitle} {
		c := strings.ToLower(strings.TrimSpace(candidate))
		if c == "" {
			continue
		}
		if strings.Contains(c, storedTitle) || strings.Contains(storedTitle, c) {
			return true
		}
	}
	return false
}

// DeleteMatched removes a stored transaction that reconciliation flagged.
func (e *Engine) DeleteMatched(ctx context.Context, result MatchResult) error {
	if !result.Matched || result.Stored == nil {
		return fmt.Errorf("row %q has no stored match to delete", result.Staged.Title)
	}
	if err := e.store.DeleteTransaction(ctx, result.Stored.ID); err != nil {
		return fmt.Errorf("deleting transaction %d: %w", result.Stored.ID, err)
	}
	e.logger.Info("matched transaction deleted", slog.Int64("transaction_id", result.Stored.ID))
	return nil
}

// EditMatched replaces a flagged stored transaction with the staged row's
// values, keeping the stored account when the staged row has none.
func (e *Engine) EditMatched(ctx context.Context, result MatchResult) (client.Transaction, error) {
	if !result.Matched || result.Stored == nil {
		return client.Transaction{}, fmt.Errorf("row %q has no stored match to edit", result.Staged.Title)
	}
	s := result.Staged
	accountID := s.AccountID
	if accountID == 0 {
		accountID = result.Stored.AccountID
	}
	updated, err := e.store.UpdateTransaction(ctx, result.Stored.ID, client.TransactionCreate{
		AccountID:  accountID,
		CategoryID: s.CategoryID,
		Amount:     s.Amount,
		Title:      s.Title,
		Note:       s.Note,
		Merchant:   s.OriginalTitle,
		Date:       s.Date,
		IsIncome:   s.IsIncome,
	})
	if err != nil {
		return client.Transaction{}, fmt.Errorf("updating transaction %d: %w", result.Stored.ID, err)
	}
	e.logger.Info("matched transaction updated", slog.Int64("transaction_id", updated.ID))
	return updated, nil
}
