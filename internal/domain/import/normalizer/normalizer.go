// Package normalizer provides pure cell-value cleanup for statement imports:
// amount parsing, income/expense inference and merchant title extraction.
package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencyReplacer strips the currency symbols and thousands separators that
// show up in bank and payment-app exports before numeric parsing.
var currencyReplacer = strings.NewReplacer(
	"₹", "", // ₹
	"$", "",
	"€", "", // €
	"£", "", // £
	"¥", "", // ¥
	",", "",
)

// ParseAmount converts a raw spreadsheet cell into a decimal amount.
// Empty and unparseable values yield zero rather than an error: a single bad
// cell must not abort a bulk import. Negative signs and decimal points pass
// through untouched; parenthesized accounting negatives are not interpreted.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(currencyReplacer.Replace(raw))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DetermineIsIncome classifies a row as income from its debit/credit
// indicator cell. With no column mapped every row defaults to expense, the
// common case in spend tracking. The "cr" substring test subsumes "credit"
// and is knowingly loose; it matches the behavior bank statements rely on.
func DetermineIsIncome(row map[string]string, debitCreditColumn string) bool {
	if debitCreditColumn == "" {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(row[debitCreditColumn]))
	return strings.Contains(v, "cr")
}

// CleanUPITitle extracts the merchant identifier from UPI transaction
// references, where it sits in the second slash-delimited segment
// ("UPI/MERCHANT/ref..."). Titles without the UPI/ or UPICC/ prefix, and
// references whose merchant segment is empty, are returned unchanged.
func CleanUPITitle(title string) string {
	if title == "" {
		return ""
	}
	upper := strings.ToUpper(title)
	if !strings.HasPrefix(upper, "UPI/") && !strings.HasPrefix(upper, "UPICC/") {
		return title
	}
	parts := strings.Split(title, "/")
	if len(parts) >= 2 {
		if merchant := strings.TrimSpace(parts[1]); merchant != "" {
			return merchant
		}
	}
	return title
}
