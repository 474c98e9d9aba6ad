package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether a ledger entry is an inflow (credit) or an
// outflow (debit) from the company's point of view.
type TransactionType string

const (
	Credit TransactionType = "CREDIT"
	Debit  TransactionType = "DEBIT"
)

// CategoryUncategorized is the deterministic fallback category assigned when no
// classification rule matches a transaction's description.
const CategoryUncategorized = "uncategorized"

// Transaction represents a single ledger entry attributed to one company and one
// statement period. Ingestion creates it; the normalizer produces a classified
// copy (Category and TransactionType filled in) without mutating the original.
type Transaction struct {
	TransactionID   string          `json:"transactionID"`
	CompanyID       string          `json:"companyID"`
	DocumentID      string          `json:"documentID"`
	Date            time.Time       `json:"date"`
	Amount          decimal.Decimal `json:"amount"` // Signed: > 0 inflow, < 0 outflow
	Description     string          `json:"description"`
	Counterparty    *string         `json:"counterparty,omitempty"`
	Category        string          `json:"category,omitempty"` // Empty until classified
	TransactionType TransactionType `json:"transactionType,omitempty"`
	AuditFields
}

// AbsAmount returns the magnitude of the transaction regardless of direction.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// IsClassified reports whether the normalizer has assigned category and type.
func (t Transaction) IsClassified() bool {
	return t.Category != "" && t.TransactionType != ""
}
