package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khamrai2017/finance-tracker/internal/client"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/matcher"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/parser"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/sniffer"
)

func newTestService() *Service {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func catID(v int64) *int64 { return &v }

func testSheet(t *testing.T) *parser.Sheet {
	t.Helper()
	data := "Date,Narration,Amount,Type\n" +
		"15/03/2024,UPI/ZOMATO/304221598765,450.00,DR\n" +
		"16/03/2024,NEFT-ACME CORP SALARY,50000.00,CR\n" +
		"17/03/2024,UPI/NEWCAFE/8877,-120.00,DR\n"
	sheet, err := parser.ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	return sheet
}

func testMerchantMappings() []matcher.MerchantMapping {
	return []matcher.MerchantMapping{
		{
			ID:             1,
			StatementTitle: "UPI/ZOMATO/304221598765",
			CleanTitle:     "ZOMATO",
			MappedTitle:    "Zomato",
			Amount:         decimal.RequireFromString("450.00"),
			CategoryID:     catID(10),
			CategoryName:   "Food",
		},
	}
}

func TestNewSessionDetectsColumns(t *testing.T) {
	svc := newTestService()
	session := svc.NewSession(testSheet(t), nil)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Narration", session.Mapping.Title)
	assert.Equal(t, "Amount", session.Mapping.Amount)
	assert.Equal(t, "Date", session.Mapping.Date)
	assert.Equal(t, "Type", session.Mapping.DebitCredit)
	assert.True(t, session.Mapping.Complete())
}

func TestStageEndToEnd(t *testing.T) {
	svc := newTestService()
	session := svc.NewSession(testSheet(t), testMerchantMappings())

	err := svc.Stage(session, ApplyOptions{AccountID: 1, AccountName: "HDFC Savings", Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, session.Staged, 3)

	zomato := session.Staged[0]
	assert.Equal(t, "Zomato", zomato.Title)
	assert.Equal(t, "UPI/ZOMATO/304221598765", zomato.OriginalTitle)
	assert.Equal(t, matcher.StrategyExact, zomato.MatchStrategy)
	require.NotNil(t, zomato.CategoryID)
	assert.Equal(t, int64(10), *zomato.CategoryID)
	assert.False(t, zomato.IsIncome)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), zomato.Date)

	salary := session.Staged[1]
	assert.Equal(t, "NEFT-ACME CORP SALARY", salary.Title)
	assert.True(t, salary.IsIncome)
	assert.Nil(t, salary.CategoryID)
	assert.Equal(t, matcher.StrategyNone, salary.MatchStrategy)

	cafe := session.Staged[2]
	assert.Equal(t, "NEWCAFE", cafe.Title, "unmatched UPI titles still get cleaned")
	assert.True(t, cafe.Amount.Equal(decimal.RequireFromString("120")), "amounts are staged absolute")
	assert.True(t, cafe.Selected)
}

func TestStageKeepsCleanedTitleWithoutMappedTitle(t *testing.T) {
	svc := newTestService()
	mappings := []matcher.MerchantMapping{
		{
			ID:             7,
			StatementTitle: "UPI/NEWCAFE/8877",
			CleanTitle:     "CAFE CHAIN",
			Amount:         decimal.RequireFromString("120.00"),
			CategoryID:     catID(30),
			CategoryName:   "Eating Out",
		},
	}
	session := svc.NewSession(testSheet(t), mappings)
	require.NoError(t, svc.Stage(session, ApplyOptions{AccountID: 1, Now: fixedNow}))
	require.Len(t, session.Staged, 3)

	// The mapping carries no mapped title, so the row keeps its own cleaned
	// statement title; the mapping's clean title is a lookup key, not a
	// display name. Category still comes across.
	cafe := session.Staged[2]
	assert.Equal(t, matcher.StrategyExact, cafe.MatchStrategy)
	assert.Equal(t, "NEWCAFE", cafe.Title)
	require.NotNil(t, cafe.CategoryID)
	assert.Equal(t, int64(30), *cafe.CategoryID)
}

func TestStageIncompleteMapping(t *testing.T) {
	svc := newTestService()
	session := svc.NewSession(testSheet(t), nil)
	session.Mapping.Amount = ""

	err := svc.Stage(session, ApplyOptions{AccountID: 1, Now: fixedNow})
	var incomplete *MappingIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"amount"}, incomplete.Missing)
	assert.Empty(t, session.Staged)
}

func TestStageRequiresAccount(t *testing.T) {
	svc := newTestService()
	session := svc.NewSession(testSheet(t), nil)

	err := svc.Stage(session, ApplyOptions{Now: fixedNow})
	var incomplete *MappingIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"account"}, incomplete.Missing)
}

func TestStageKeepsEmptyRows(t *testing.T) {
	// A row with a date but no title or amount still stages; it is the
	// user's call to deselect it, and commit will gate it anyway.
	sheet, err := parser.ParseCSV(strings.NewReader(
		"Date,Narration,Amount,Type\n" +
			"01-01-2024,UPI/Zomato/xyz,450,DR\n" +
			"02-01-2024,Salary Credit,50000,CR\n" +
			"03-01-2024,,0,\n"))
	require.NoError(t, err)

	svc := newTestService()
	session := svc.NewSession(sheet, nil)
	require.NoError(t, svc.Stage(session, ApplyOptions{AccountID: 1, Now: fixedNow}))
	require.Len(t, session.Staged, 3)

	assert.Equal(t, "Zomato", session.Staged[0].Title)
	assert.False(t, session.Staged[0].IsIncome)
	assert.True(t, session.Staged[1].IsIncome)

	empty := session.Staged[2]
	assert.Equal(t, "", empty.Title)
	assert.True(t, empty.Amount.IsZero())
	assert.False(t, empty.IsIncome)
}

func TestStageFallbackCategory(t *testing.T) {
	svc := newTestService()
	session := svc.NewSession(testSheet(t), testMerchantMappings())

	fallback := int64(42)
	require.NoError(t, svc.Stage(session, ApplyOptions{
		AccountID:            1,
		FallbackCategoryID:   &fallback,
		FallbackCategoryName: "Uncategorized",
		Now:                  fixedNow,
	}))

	// The matched row keeps its mapping's category.
	require.NotNil(t, session.Staged[0].CategoryID)
	assert.Equal(t, int64(10), *session.Staged[0].CategoryID)

	// Unmatched rows pick up the fallback.
	require.NotNil(t, session.Staged[1].CategoryID)
	assert.Equal(t, int64(42), *session.Staged[1].CategoryID)
	assert.Equal(t, "Uncategorized", session.Staged[1].CategoryName)
}

func TestStageUnknownColumn(t *testing.T) {
	svc := newTestService()
	session := svc.NewSession(testSheet(t), nil)
	session.Mapping.Title = "Description"

	err := svc.Stage(session, ApplyOptions{AccountID: 1, Now: fixedNow})
	var unknown *UnknownColumnError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "title", unknown.Field)
	assert.Equal(t, "Description", unknown.Header)
}

func TestApplyMappingDeterministic(t *testing.T) {
	sheet := testSheet(t)
	mapping := sniffer.AutoDetectColumns(sheet.Headers)
	opts := ApplyOptions{AccountID: 1, Now: fixedNow}

	first, err := ApplyMapping(sheet, mapping, testMerchantMappings(), opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := ApplyMapping(sheet, mapping, testMerchantMappings(), opts)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDateRange(t *testing.T) {
	staged := []StagedTransaction{
		{Date: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)},
	}
	from, to, ok := DateRange(staged)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), to)

	_, _, ok = DateRange(nil)
	assert.False(t, ok)
}

func TestExportRecords(t *testing.T) {
	staged := []StagedTransaction{
		{
			Title:         "Zomato",
			OriginalTitle: "UPI/ZOMATO/1",
			Amount:        decimal.RequireFromString("450"),
			Date:          time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			CategoryName:  "Food",
			AccountName:   "HDFC Savings",
		},
		{
			Title:    "Salary",
			Amount:   decimal.RequireFromString("50000"),
			IsIncome: true,
			Date:     time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		},
	}
	records := ExportRecords(staged)
	require.Len(t, records, 2)
	assert.Equal(t, parser.ExportRecord{
		Date: "2024-03-15", Title: "Zomato", OriginalTitle: "UPI/ZOMATO/1",
		Amount: "450.00", Type: "expense", Category: "Food", Account: "HDFC Savings",
	}, records[0])
	assert.Equal(t, "income", records[1].Type)
	assert.Equal(t, "50000.00", records[1].Amount)
}

func TestSuggestions(t *testing.T) {
	svc := newTestService()
	session := svc.NewSession(testSheet(t), testMerchantMappings())
	require.NoError(t, svc.Stage(session, ApplyOptions{AccountID: 1, Now: fixedNow}))

	got, err := svc.Suggestions(session, 0, 55, 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, int64(1), got[0].Mapping.ID)

	// The threshold is honored, not a baked-in constant: raising it above
	// a perfect score filters everything out.
	got, err = svc.Suggestions(session, 0, 101, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.Suggestions(session, 99, 55, 5)
	assert.Error(t, err)
}

// fakeStore records created transactions and can fail on a chosen title.
type fakeStore struct {
	created   []client.TransactionCreate
	failTitle string
	nextID    int64
}

func (f *fakeStore) CreateTransaction(_ context.Context, create client.TransactionCreate) (client.Transaction, error) {
	if f.failTitle != "" && create.Title == f.failTitle {
		return client.Transaction{}, errors.New("backend rejected transaction")
	}
	f.created = append(f.created, create)
	f.nextID++
	return client.Transaction{ID: f.nextID, AccountID: create.AccountID, Title: create.Title}, nil
}

func stagedForCommit() []StagedTransaction {
	return []StagedTransaction{
		{Title: "Zomato", OriginalTitle: "UPI/ZOMATO/1", Amount: decimal.RequireFromString("450"), AccountID: 1, CategoryID: catID(10), Date: fixedNow(), Selected: true},
		{Title: "Rent", Amount: decimal.RequireFromString("12000"), AccountID: 1, CategoryID: catID(11), Date: fixedNow(), Selected: true},
		{Title: "Skipped", Amount: decimal.RequireFromString("1"), Selected: false},
	}
}

func TestCommitHappyPath(t *testing.T) {
	svc := newTestService()
	session := &Session{ID: "s1", Staged: stagedForCommit()}
	store := &fakeStore{}

	result, err := svc.Commit(context.Background(), session, store)
	require.NoError(t, err)
	assert.Equal(t, CommitResult{Created: 2, Remaining: 1}, result)

	require.Len(t, store.created, 2)
	assert.Equal(t, "Zomato", store.created[0].Title)
	assert.Equal(t, "UPI/ZOMATO/1", store.created[0].Merchant)
	assert.Equal(t, "Rent", store.created[1].Title)

	// The unselected row is all that remains staged.
	require.Len(t, session.Staged, 1)
	assert.Equal(t, "Skipped", session.Staged[0].Title)
}

func TestCommitValidatesBeforeWriting(t *testing.T) {
	svc := newTestService()
	store := &fakeStore{}

	t.Run("missing category", func(t *testing.T) {
		staged := stagedForCommit()
		staged[1].CategoryID = nil
		session := &Session{ID: "s1", Staged: staged}

		_, err := svc.Commit(context.Background(), session, store)
		var incomplete *IncompleteRecordError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, 1, incomplete.Index)
		assert.Equal(t, "Rent", incomplete.Title)
		assert.Equal(t, "category", incomplete.Field)
		assert.Empty(t, store.created, "validation failure must not write anything")
		assert.Len(t, session.Staged, 3, "staging area untouched")
	})

	t.Run("missing account", func(t *testing.T) {
		staged := stagedForCommit()
		staged[0].AccountID = 0
		session := &Session{ID: "s1", Staged: staged}

		_, err := svc.Commit(context.Background(), session, store)
		var incomplete *IncompleteRecordError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, "account", incomplete.Field)
		assert.Empty(t, store.created)
	})
}

func TestCommitPartialFailure(t *testing.T) {
	svc := newTestService()
	session := &Session{ID: "s1", Staged: stagedForCommit()}
	store := &fakeStore{failTitle: "Rent"}

	result, err := svc.Commit(context.Background(), session, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Rent"`)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Remaining)

	// Zomato went through and left staging; Rent and the unselected row stay.
	require.Len(t, session.Staged, 2)
	assert.Equal(t, "Rent", session.Staged[0].Title)
	assert.Equal(t, "Skipped", session.Staged[1].Title)
}

func TestCommitRefusesLooseMatches(t *testing.T) {
	svc := newTestService()
	staged := stagedForCommit()
	staged[0].MatchStrategy = matcher.StrategyAmount
	session := &Session{ID: "s1", Staged: staged}
	store := &fakeStore{}

	_, err := svc.Commit(context.Background(), session, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preview-only")
	assert.Empty(t, store.created)
}

func TestCommitNothingSelected(t *testing.T) {
	svc := newTestService()
	session := &Session{ID: "s1", Staged: []StagedTransaction{{Title: "x", Selected: false}}}
	result, err := svc.Commit(context.Background(), session, &fakeStore{})
	require.NoError(t, err)
	assert.Equal(t, CommitResult{Created: 0, Remaining: 1}, result)
}
