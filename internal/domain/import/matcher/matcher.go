// Package matcher resolves staged statement rows against the user's saved
// merchant mappings so that recurring merchants get their clean title and
// category applied automatically.
package matcher

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/khamrai2017/finance-tracker/internal/domain/import/normalizer"
)

// amountTolerance bounds the difference under which two amounts count as
// equal. Statement exports and the backend round independently.
var amountTolerance = decimal.NewFromFloat(0.01)

// MerchantMapping is a saved association between a raw statement title and
// the clean merchant the user wants it recorded as. CategoryID is nil when
// the mapping carries no category.
type MerchantMapping struct {
	ID             int64
	StatementTitle string
	CleanTitle     string
	MappedTitle    string
	Amount         decimal.Decimal
	CategoryID     *int64
	CategoryName   string
}

// Strategy identifies which rule produced a match. Strategies are ordered
// strongest first; the loose strategies only appear from ResolveLoose.
type Strategy int

const (
	StrategyNone Strategy = iota
	// StrategyExact matched both the title and the amount.
	StrategyExact
	// StrategyTitle matched the title of a mapping that carries a category.
	StrategyTitle
	// StrategyContains matched the amount plus title containment. Preview only.
	StrategyContains
	// StrategyAmount matched by amount alone. Preview only.
	StrategyAmount
)

func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategyTitle:
		return "title"
	case StrategyContains:
		return "contains"
	case StrategyAmount:
		return "amount"
	default:
		return "none"
	}
}

// Match is a resolved mapping together with the strategy that selected it.
type Match struct {
	Mapping  MerchantMapping
	Strategy Strategy
}

// Resolve finds the mapping for a statement row using the strict strategies,
// strongest first:
//
//  1. title and amount both match
//  2. title matches and the mapping carries a category
//
// The title-only tier requires a category because a merchant recurs at many
// amounts: borrowing a prior title is safe, but a category may only come
// from a mapping that actually had one. Within a tier the first mapping in
// slice order wins, so resolution is deterministic for a given mapping list.
// Returns nil when nothing matches; the caller keeps the cleaned statement
// title and an explicitly absent category. Commits only ever use this
// strict path.
func Resolve(title string, amount decimal.Decimal, mappings []MerchantMapping) *Match {
	for i := range mappings {
		if titlesMatch(mappings[i], title) && amountsMatch(mappings[i].Amount, amount) {
			return &Match{Mapping: mappings[i], Strategy: StrategyExact}
		}
	}
	for i := range mappings {
		if titlesMatch(mappings[i], title) && mappings[i].CategoryID != nil {
			return &Match{Mapping: mappings[i], Strategy: StrategyTitle}
		}
	}
	return nil
}

// ResolveLoose extends Resolve with two weaker strategies for preview
// screens: title containment in either direction at the mapped amount,
// then amount equality alone. Loose matches are hints for the user to
// confirm; they must not feed a commit.
func ResolveLoose(title string, amount decimal.Decimal, mappings []MerchantMapping) *Match {
	if m := Resolve(title, amount, mappings); m != nil {
		return m
	}
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower != "" {
		for i := range mappings {
			if amountsMatch(mappings[i].Amount, amount) && titleContains(mappings[i], lower) {
				return &Match{Mapping: mappings[i], Strategy: StrategyContains}
			}
		}
	}
	for i := range mappings {
		if amountsMatch(mappings[i].Amount, amount) {
			return &Match{Mapping: mappings[i], Strategy: StrategyAmount}
		}
	}
	return nil
}

func amountsMatch(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(amountTolerance)
}

// titlesMatch compares a statement row against a mapping's title variants:
// the raw title against the stored statement title verbatim, the UPI-cleaned
// title against the clean title verbatim, and the cleaned title against the
// mapped title case-insensitively. Mapped titles are human-typed, so only
// that comparison folds case; statement and clean titles came off statements
// and must match exactly.
func titlesMatch(m MerchantMapping, title string) bool {
	t := strings.TrimSpace(title)
	if t == "" {
		return false
	}
	if t == m.StatementTitle {
		return true
	}
	clean := strings.TrimSpace(normalizer.CleanUPITitle(t))
	if clean == "" {
		return false
	}
	if m.CleanTitle != "" && clean == m.CleanTitle {
		return true
	}
	return m.MappedTitle != "" && strings.EqualFold(clean, m.MappedTitle)
}

func titleContains(m MerchantMapping, lower string) bool {
	for _, candidate := range []string{m.StatementTitle, m.CleanTitle, m.MappedTitle} {
		c := strings.ToLower(strings.TrimSpace(candidate))
		if c == "" {
			continue
		}
		if strings.Contains(c, lower) || strings.Contains(lower, c) {
			return true
		}
	}
	return false
}
