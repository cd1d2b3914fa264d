// Package sniffer inspects raw statement files and header rows to work out
// how a spreadsheet is laid out before any row is parsed.
package sniffer

import "strings"

// ColumnMapping binds the logical statement fields to header names in the
// source sheet. An empty string means the field is not mapped. Only Title,
// Amount and Date are required to stage transactions.
type ColumnMapping struct {
	Title       string
	Amount      string
	Date        string
	DebitCredit string
	Note        string
}

// Complete reports whether the mapping covers every required field. A date
// column is optional; rows without one default to the import time.
func (m ColumnMapping) Complete() bool {
	return m.Title != "" && m.Amount != ""
}

// Missing lists the required fields the mapping does not cover yet.
func (m ColumnMapping) Missing() []string {
	var missing []string
	if m.Title == "" {
		missing = append(missing, "title")
	}
	if m.Amount == "" {
		missing = append(missing, "amount")
	}
	return missing
}

var titleHeaders = map[string]bool{
	"title":               true,
	"description":         true,
	"narration":           true,
	"particulars":         true,
	"details":             true,
	"transaction details": true,
	"merchant":            true,
	"payee":               true,
}

var debitCreditHeaders = map[string]bool{
	"type":             true,
	"dr/cr":            true,
	"cr/dr":            true,
	"debit/credit":     true,
	"credit/debit":     true,
	"transaction type": true,
	"txn type":         true,
	"dr cr":            true,
}

var noteHeaders = map[string]bool{
	"note":     true,
	"notes":    true,
	"remarks":  true,
	"comments": true,
	"memo":     true,
	"ref no":   true,
}

var amountSubstrings = []string{
	"amount", "amt", "value", "withdrawal", "deposit", "debit", "credit",
}

var dateSubstrings = []string{"date", "posted", "txn dt", "value dt"}

// AutoDetectColumns guesses a ColumnMapping from a header row. Headers are
// compared case-insensitively after trimming; each header claims at most one
// field and each field keeps its first claimant, so "Withdrawal Amt" followed
// by "Deposit Amt" maps amount to the withdrawal column. Exact-set matches
// (title, debit/credit, note) are tried before the looser substring matches
// so a "Type" header never lands on amount via "credit". The result is a
// guess for the user to confirm, never a silent decision.
func AutoDetectColumns(headers []string) ColumnMapping {
	var m ColumnMapping
	for _, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}
		switch {
		case m.Title == "" && titleHeaders[h]:
			m.Title = header
		case m.DebitCredit == "" && debitCreditHeaders[h]:
			m.DebitCredit = header
		case m.Note == "" && noteHeaders[h]:
			m.Note = header
		case m.Date == "" && containsAny(h, dateSubstrings):
			m.Date = header
		case m.Amount == "" && containsAny(h, amountSubstrings):
			m.Amount = header
		}
	}
	return m
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
