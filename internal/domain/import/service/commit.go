package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/khamrai2017/finance-tracker/internal/client"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/matcher"
)

// TransactionCreator is the slice of the backend client Commit needs.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, create client.TransactionCreate) (client.Transaction, error)
}

// CommitResult summarizes a commit attempt.
type CommitResult struct {
	Created   int
	Remaining int
}

// Commit writes every selected staged row to the backend. Validation runs
// over the whole selection first: if any selected row lacks an account or a
// category, nothing at all is written. Rows are then created one at a time
// in staged order; on a backend failure the rows created so far stay
// created, the failed row and everything after it remain staged, and the
// returned result reflects both. Committed rows leave the staging area.
//
// Loose merchant matches never reach this path: Stage applies them only
// when explicitly asked for a preview, and a loose-staged session must be
// restaged strictly before commit.
func (s *Service) Commit(ctx context.Context, session *Session, store TransactionCreator) (CommitResult, error) {
	selected := make([]int, 0, len(session.Staged))
	for i := range session.Staged {
		if session.Staged[i].Selected {
			selected = append(selected, i)
		}
	}
	result := CommitResult{Remaining: len(session.Staged)}
	if len(selected) == 0 {
		return result, nil
	}

	for _, i := range selected {
		t := &session.Staged[i]
		if t.MatchStrategy == matcher.StrategyContains || t.MatchStrategy == matcher.StrategyAmount {
			return result, fmt.Errorf("staged row %d (%q) carries a preview-only match; restage before committing", i, t.Title)
		}
		if t.AccountID == 0 {
			return result, &IncompleteRecordError{Index: i, Title: t.Title, Field: "account"}
		}
		if t.CategoryID == nil {
			return result, &IncompleteRecordError{Index: i, Title: t.Title, Field: "category"}
		}
	}

	committed := make(map[int]bool, len(selected))
	for _, i := range selected {
		t := session.Staged[i]
		created, err := store.CreateTransaction(ctx, client.TransactionCreate{
			AccountID:  t.AccountID,
			CategoryID: t.CategoryID,
			Amount:     t.Amount,
			Title:      t.Title,
			Note:       t.Note,
			Merchant:   t.OriginalTitle,
			Date:       t.Date,
			IsIncome:   t.IsIncome,
		})
		if err != nil {
			s.dropCommitted(session, committed)
			result.Created = len(committed)
			result.Remaining = len(session.Staged)
			return result, fmt.Errorf("committing row %d (%q): %w", i, t.Title, err)
		}
		committed[i] = true
		s.logger.Info("transaction committed",
			slog.String("session_id", session.ID),
			slog.Int64("transaction_id", created.ID),
			slog.String("title", t.Title))
	}

	s.dropCommitted(session, committed)
	result.Created = len(committed)
	result.Remaining = len(session.Staged)
	return result, nil
}

// dropCommitted removes successfully created rows from the staging area,
// preserving the order of what remains.
func (s *Service) dropCommitted(session *Session, committed map[int]bool) {
	if len(committed) == 0 {
		return
	}
	remaining := session.Staged[:0]
	for i := range session.Staged {
		if !committed[i] {
			remaining = append(remaining, session.Staged[i])
		}
	}
	session.Staged = remaining
}
