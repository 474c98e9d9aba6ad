package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/finpulse/fin_health_app/internal/core/domain"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
)

// categoryRule is one keyword rule of the classification table. Rules are
// evaluated in order; the first keyword hit wins.
type categoryRule struct {
	category string
	keywords []string
}

// categoryRules is the fixed classification table. More specific business
// categories come before the generic revenue/expenses buckets so that e.g.
// "salary payment" lands in payroll, not expenses.
var categoryRules = []categoryRule{
	{category: "payroll", keywords: []string{"salary", "wages", "pf", "esi", "bonus", "incentive"}},
	{category: "utilities", keywords: []string{"electricity", "water", "gas", "power", "internet", "telephone"}},
	{category: "rent", keywords: []string{"rent", "lease", "premises"}},
	{category: "supplies", keywords: []string{"stationery", "office supplies", "raw material", "material"}},
	{category: "transport", keywords: []string{"transport", "logistics", "shipping", "fuel", "travel"}},
	{category: "marketing", keywords: []string{"advertising", "marketing", "promotion", "ads", "campaign"}},
	{category: "professional", keywords: []string{"legal", "consulting", "audit", "professional fees"}},
	{category: "taxes", keywords: []string{"gst", "tds", "income tax", "cess", "tax"}},
	{category: "bank_charges", keywords: []string{"bank charge", "processing fee", "commission", "interest"}},
	{category: "revenue", keywords: []string{"sales", "revenue", "income", "receipt", "deposit"}},
	{category: "expenses", keywords: []string{"expense", "payment", "withdrawal", "purchase"}},
}

// classifyDescription returns the rule-table category for a description, or ""
// when no keyword matches. Shared by the normalizer (assignment) and the anomaly
// detector (category_mismatch evidence).
func classifyDescription(description string) string {
	desc := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(desc, keyword) {
				return rule.category
			}
		}
	}
	return ""
}

// normalizerService implements the TransactionNormalizerSvc interface.
type normalizerService struct {
	BaseService
}

// NewNormalizerService creates a new transaction normalizer.
func NewNormalizerService() portssvc.TransactionNormalizerSvc {
	return &normalizerService{}
}

var _ portssvc.TransactionNormalizerSvc = (*normalizerService)(nil)

// Normalize classifies every transaction and returns a new slice of the same
// length. It never fails and never drops a transaction: unmatched descriptions
// fall back to the uncategorized category. A category already supplied by
// ingestion is preserved. The input slice and its elements are left untouched so
// the same raw data can feed multiple scoring runs.
//
// A zero amount classifies as a debit by convention.
func (s *normalizerService) Normalize(ctx context.Context, transactions []domain.Transaction) []domain.Transaction {
	normalized := make([]domain.Transaction, len(transactions))
	uncategorized := 0

	for i, txn := range transactions {
		out := txn

		if out.Category == "" {
			if category := classifyDescription(out.Description); category != "" {
				out.Category = category
			} else {
				out.Category = domain.CategoryUncategorized
				uncategorized++
			}
		}

		if out.Amount.IsPositive() {
			out.TransactionType = domain.Credit
		} else {
			out.TransactionType = domain.Debit
		}

		normalized[i] = out
	}

	s.LogDebug(ctx, "Transactions normalized",
		slog.Int("count", len(normalized)),
		slog.Int("uncategorized", uncategorized))
	return normalized
}
