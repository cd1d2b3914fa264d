package client

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khamrai2017/finance-tracker/internal/domain/import/matcher"
)

// Account is a ledger account transactions are booked against.
type Account struct {
	ID   int64
	Name string
}

// Category is a spending or income category.
type Category struct {
	ID   int64
	Name string
}

// Transaction is a stored transaction as the backend holds it.
type Transaction struct {
	ID         int64
	AccountID  int64
	CategoryID *int64
	Amount     decimal.Decimal
	Title      string
	Note       string
	Merchant   string
	Date       time.Time
	IsIncome   bool
}

// TransactionCreate is the payload for creating or replacing a transaction.
type TransactionCreate struct {
	AccountID  int64
	CategoryID *int64
	Amount     decimal.Decimal
	Title      string
	Note       string
	Merchant   string
	Date       time.Time
	IsIncome   bool
}

// Wire structs mirror the backend's JSON exactly. Amounts travel as floats
// and dates as ISO strings, sometimes without a timezone; conversion to
// decimal and time.Time happens here and nowhere else.

type accountWire struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type categoryWire struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type transactionWire struct {
	ID         int64   `json:"id"`
	AccountID  int64   `json:"account_id"`
	CategoryID *int64  `json:"category_id"`
	Amount     float64 `json:"amount"`
	Title      string  `json:"title"`
	Note       string  `json:"note"`
	Merchant   string  `json:"merchant"`
	Date       string  `json:"date"`
	IsIncome   bool    `json:"is_income"`
}

type transactionCreateWire struct {
	AccountID  int64   `json:"account_id"`
	CategoryID *int64  `json:"category_id"`
	Amount     float64 `json:"amount"`
	Title      string  `json:"title"`
	Note       string  `json:"note"`
	Merchant   string  `json:"merchant"`
	Date       string  `json:"date"`
	IsIncome   bool    `json:"is_income"`
}

type merchantMappingWire struct {
	ID             int64   `json:"id"`
	StatementTitle string  `json:"statement_title"`
	CleanTitle     string  `json:"clean_title"`
	Title          string  `json:"title"`
	Amount         float64 `json:"amount"`
	CategoryID     *int64  `json:"category_id"`
	CategoryName   string  `json:"category_name"`
}

// wireTimeFormats covers the datetime spellings the backend emits. Naive
// datetimes are taken as UTC.
var wireTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseWireTime(s string) (time.Time, error) {
	for _, layout := range wireTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}

func (w transactionWire) toDomain() (Transaction, error) {
	date, err := parseWireTime(w.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %d: %w", w.ID, err)
	}
	return Transaction{
		ID:         w.ID,
		AccountID:  w.AccountID,
		CategoryID: w.CategoryID,
		Amount:     decimal.NewFromFloat(w.Amount),
		Title:      w.Title,
		Note:       w.Note,
		Merchant:   w.Merchant,
		Date:       date,
		IsIncome:   w.IsIncome,
	}, nil
}

func (t TransactionCreate) toWire() transactionCreateWire {
	amount, _ := t.Amount.Float64()
	return transactionCreateWire{
		AccountID:  t.AccountID,
		CategoryID: t.CategoryID,
		Amount:     amount,
		Title:      t.Title,
		Note:       t.Note,
		Merchant:   t.Merchant,
		Date:       t.Date.UTC().Format(time.RFC3339),
		IsIncome:   t.IsIncome,
	}
}

func (w merchantMappingWire) toDomain() matcher.MerchantMapping {
	return matcher.MerchantMapping{
		ID:             w.ID,
		StatementTitle: w.StatementTitle,
		CleanTitle:     w.CleanTitle,
		MappedTitle:    w.Title,
		Amount:         decimal.NewFromFloat(w.Amount),
		CategoryID:     w.CategoryID,
		CategoryName:   w.CategoryName,
	}
}
