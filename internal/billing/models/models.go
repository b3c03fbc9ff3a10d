// Package models holds the billing aggregates: customers and the expense
// records that reference them.
package models

import "strings"

// Customer is one billing counterparty.
type Customer struct {
	ID             string
	Name           string
	LegalName      string
	TaxID          string
	BillingContact string
	BillingEmail   string
}

// Expense is one outgoing payment record. CustomerID is empty for records
// captured before the customer existed, which is what relinking fixes.
type Expense struct {
	ID            string
	Company       string
	CompanyNormal string
	Category      string
	Kind          string
	CustomerID    string
	Concept       string
	Month         string
}

// NormalizeName lowers and trims a company name for fuzzy matching. Matching
// is substring-based on this form, so stored names keep their original
// casing.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MatchesKeyword reports whether the keyword occurs in either company field,
// normalized.
func (e *Expense) MatchesKeyword(keyword string) bool {
	k := NormalizeName(keyword)
	if k == "" {
		return false
	}
	return strings.Contains(NormalizeName(e.Company), k) ||
		strings.Contains(NormalizeName(e.CompanyNormal), k)
}
