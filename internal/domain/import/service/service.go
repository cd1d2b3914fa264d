// Package service coordinates a statement import: it applies a column
// mapping to a parsed sheet, resolves merchants, stages transactions for
// review and commits the selection to the backend.
package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/khamrai2017/finance-tracker/internal/domain/import/matcher"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/normalizer"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/parser"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/sniffer"
)

// StagedTransaction is one statement row prepared for commit. Amount is
// always non-negative; direction lives in IsIncome. OriginalTitle preserves
// the raw statement text after Title has been cleaned or mapped.
type StagedTransaction struct {
	Title         string
	OriginalTitle string
	Amount        decimal.Decimal
	IsIncome      bool
	Date          time.Time
	Note          string
	AccountID     int64
	AccountName   string
	CategoryID    *int64
	CategoryName  string
	MatchStrategy matcher.Strategy
	Selected      bool
}

// Session is one in-flight import: the parsed sheet, the column mapping in
// effect and the rows staged from it. Sessions are not safe for concurrent
// mutation.
type Session struct {
	ID       string
	Sheet    *parser.Sheet
	Mapping  sniffer.ColumnMapping
	Mappings []matcher.MerchantMapping
	Staged   []StagedTransaction
}

// Service runs imports. The zero value is not usable; construct with New.
type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// NewSession parses nothing itself; it wraps an already parsed sheet and
// guesses a column mapping from its headers.
func (s *Service) NewSession(sheet *parser.Sheet, mappings []matcher.MerchantMapping) *Session {
	session := &Session{
		ID:       uuid.NewString(),
		Sheet:    sheet,
		Mapping:  sniffer.AutoDetectColumns(sheet.Headers),
		Mappings: mappings,
	}
	s.logger.Info("import session opened",
		slog.String("session_id", session.ID),
		slog.Int("rows", len(sheet.Rows)),
		slog.Any("missing_columns", session.Mapping.Missing()))
	return session
}

// ApplyOptions controls how rows are staged.
type ApplyOptions struct {
	// AccountID assigns every staged row to an account. Required: staging
	// without an account would defer a hard commit precondition to a point
	// where the user can no longer see which rows it belongs to.
	AccountID   int64
	AccountName string
	// FallbackCategoryID is applied to rows the merchant mappings leave
	// uncategorized. Nil leaves them explicitly uncategorized.
	FallbackCategoryID   *int64
	FallbackCategoryName string
	// Loose enables the containment and amount-only merchant strategies.
	// Preview only; commits always restage strictly.
	Loose bool
	// Now supplies the fallback timestamp for missing or unparseable
	// dates. Defaults to time.Now.
	Now func() time.Time
}

// Stage applies the session's current mapping to every sheet row and
// replaces the staged set. The mapping must name title, amount and date
// columns that exist in the sheet.
func (s *Service) Stage(session *Session, opts ApplyOptions) error {
	staged, err := ApplyMapping(session.Sheet, session.Mapping, session.Mappings, opts)
	if err != nil {
		return err
	}
	session.Staged = staged

	matched := 0
	for _, t := range staged {
		if t.MatchStrategy != matcher.StrategyNone {
			matched++
		}
	}
	s.logger.Info("rows staged",
		slog.String("session_id", session.ID),
		slog.Int("staged", len(staged)),
		slog.Int("matched", matched))
	return nil
}

// ApplyMapping stages every row of a sheet using the given column mapping.
// Every sheet row stages, including blank-looking ones: an empty title or
// zero amount is a visible "needs attention" row for the user to deselect,
// not something to drop silently. The function is pure: same sheet, mapping
// and merchant list always produce the same staged rows (up to the Now
// fallback for broken dates).
func ApplyMapping(sheet *parser.Sheet, mapping sniffer.ColumnMapping, mappings []matcher.MerchantMapping, opts ApplyOptions) ([]StagedTransaction, error) {
	missing := mapping.Missing()
	if opts.AccountID == 0 {
		missing = append(missing, "account")
	}
	if len(missing) > 0 {
		return nil, &MappingIncompleteError{Missing: missing}
	}
	if err := validateColumns(sheet, mapping); err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	resolve := matcher.Resolve
	if opts.Loose {
		resolve = matcher.ResolveLoose
	}

	staged := make([]StagedTransaction, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rawTitle := strings.TrimSpace(sheet.Cell(row, mapping.Title))
		amount := normalizer.ParseAmount(sheet.Cell(row, mapping.Amount)).Abs()

		t := StagedTransaction{
			Title:         normalizer.CleanUPITitle(rawTitle),
			OriginalTitle: rawTitle,
			Amount:        amount,
			IsIncome:      normalizer.DetermineIsIncome(row, mapping.DebitCredit),
			Date:          normalizer.ParseFlexibleDate(sheet.Cell(row, mapping.Date), now()),
			Note:          strings.TrimSpace(sheet.Cell(row, mapping.Note)),
			AccountID:     opts.AccountID,
			AccountName:   opts.AccountName,
			Selected:      true,
		}

		if match := resolve(rawTitle, amount, mappings); match != nil {
			t.MatchStrategy = match.Strategy
			if match.Mapping.MappedTitle != "" {
				t.Title = match.Mapping.MappedTitle
			}
			t.CategoryID = match.Mapping.CategoryID
			t.CategoryName = match.Mapping.CategoryName
		}
		if t.CategoryID == nil && opts.FallbackCategoryID != nil {
			t.CategoryID = opts.FallbackCategoryID
			t.CategoryName = opts.FallbackCategoryName
		}
		staged = append(staged, t)
	}
	return staged, nil
}

func validateColumns(sheet *parser.Sheet, mapping sniffer.ColumnMapping) error {
	known := make(map[string]bool, len(sheet.Headers))
	for _, h := range sheet.Headers {
		known[h] = true
	}
	for field, header := range map[string]string{
		"title":        mapping.Title,
		"amount":       mapping.Amount,
		"date":         mapping.Date,
		"debit_credit": mapping.DebitCredit,
		"note":         mapping.Note,
	} {
		if header != "" && !known[header] {
			return &UnknownColumnError{Field: field, Header: header}
		}
	}
	return nil
}

// DateRange returns the inclusive date span covered by the staged rows.
// ok is false when nothing is staged.
func DateRange(staged []StagedTransaction) (from, to time.Time, ok bool) {
	for _, t := range staged {
		if !ok || t.Date.Before(from) {
			from = t.Date
		}
		if !ok || t.Date.After(to) {
			to = t.Date
		}
		ok = true
	}
	return from, to, ok
}

// ExportRecords flattens staged rows for CSV or XLSX export.
func ExportRecords(staged []StagedTransaction) []parser.ExportRecord {
	records := make([]parser.ExportRecord, len(staged))
	for i, t := range staged {
		kind := "expense"
		if t.IsIncome {
			kind = "income"
		}
		records[i] = parser.ExportRecord{
			Date:          t.Date.Format("2006-01-02"),
			Title:         t.Title,
			OriginalTitle: t.OriginalTitle,
			Amount:        t.Amount.StringFixed(2),
			Type:          kind,
			Category:      t.CategoryName,
			Account:       t.AccountName,
			Note:          t.Note,
		}
	}
	return records
}

// Suggestions ranks the session's merchant mappings against a staged row's
// original title, for rows the strict strategies left unmatched. Mappings
// scoring below threshold are dropped; at most limit results come back.
func (s *Service) Suggestions(session *Session, index, threshold, limit int) ([]matcher.Suggestion, error) {
	if index < 0 || index >= len(session.Staged) {
		return nil, fmt.Errorf("staged row %d out of range", index)
	}
	return matcher.Suggest(session.Staged[index].OriginalTitle, session.Mappings, threshold, limit), nil
}
