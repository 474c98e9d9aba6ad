package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finpulse/fin_health_app/internal/core/domain"
	"github.com/finpulse/fin_health_app/internal/core/services"
	"github.com/finpulse/fin_health_app/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func stringPtr(s string) *string {
	return &s
}

// baselineTransactions builds n small debits so the mean absolute amount lands
// close to `around` without triggering the large-transaction floor.
func baselineTransactions(n int, around int64) []domain.Transaction {
	txns := make([]domain.Transaction, n)
	for i := range txns {
		txns[i] = domain.Transaction{
			TransactionID:   string(rune('a'+i)) + "-base",
			Date:            day(1 + i%20),
			Amount:          decimal.NewFromInt(-around),
			Description:     "vendor payment",
			Category:        "expenses",
			TransactionType: domain.Debit,
		}
	}
	return txns
}

func onlyType(anomalies []domain.Anomaly, typ domain.AnomalyType) []domain.Anomaly {
	var out []domain.Anomaly
	for _, a := range anomalies {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func TestDetectAnomalies_LargeTransaction(t *testing.T) {
	policy := config.DefaultScoringPolicy()
	svc := services.NewAnomalyService(policy)

	// 10 transactions of 5k plus one of 500k: mean absolute amount is exactly
	// 50k, so the effective threshold is the 150k floor.
	txns := baselineTransactions(10, 5000)
	txns = append(txns, domain.Transaction{
		TransactionID:   "big-1",
		Date:            day(10),
		Amount:          decimal.NewFromInt(-500000),
		Description:     "equipment purchase",
		Category:        "expenses",
		TransactionType: domain.Debit,
	})

	anomalies := svc.DetectAnomalies(context.Background(), "comp-1", txns, decimal.NewFromInt(1000000))
	large := onlyType(anomalies, domain.AnomalyLargeTransaction)

	require.Len(t, large, 1)
	assert.Equal(t, "big-1", *large[0].TransactionID)
	// 500000 sits between 2x and 4x of the threshold.
	assert.Equal(t, domain.SeverityHigh, large[0].Severity)
	require.NotNil(t, large[0].Evidence.Amount)
	assert.True(t, large[0].Evidence.Amount.Equal(decimal.NewFromInt(500000)))
	require.NotNil(t, large[0].Evidence.Threshold)
	assert.Empty(t, large[0].AnomalyID, "detector must not assign IDs")
}

func TestDetectAnomalies_DuplicateWithinWindow(t *testing.T) {
	policy := config.DefaultScoringPolicy()
	svc := services.NewAnomalyService(policy)

	txns := []domain.Transaction{
		{TransactionID: "d1", Date: day(5), Amount: decimal.NewFromInt(-12500), Counterparty: stringPtr("Acme Supplies"), Category: "supplies", TransactionType: domain.Debit},
		{TransactionID: "d2", Date: day(6), Amount: decimal.NewFromInt(-12500), Counterparty: stringPtr("Acme Supplies"), Category: "supplies", TransactionType: domain.Debit},
		// Same pair but outside the 3-day window: not a duplicate.
		{TransactionID: "d3", Date: day(20), Amount: decimal.NewFromInt(-12500), Counterparty: stringPtr("Acme Supplies"), Category: "supplies", TransactionType: domain.Debit},
		// Same amount, different counterparty: not a duplicate.
		{TransactionID: "d4", Date: day(6), Amount: decimal.NewFromInt(-12500), Counterparty: stringPtr("Other Vendor"), Category: "supplies", TransactionType: domain.Debit},
	}

	anomalies := svc.DetectAnomalies(context.Background(), "comp-1", txns, decimal.NewFromInt(100000))
	duplicates := onlyType(anomalies, domain.AnomalyDuplicateTransaction)

	require.Len(t, duplicates, 1)
	assert.Equal(t, "d2", *duplicates[0].TransactionID)
	assert.Equal(t, domain.SeverityMedium, duplicates[0].Severity)
	require.NotNil(t, duplicates[0].Evidence.Occurrences)
	assert.Equal(t, 2, *duplicates[0].Evidence.Occurrences)
}

func TestDetectAnomalies_RoundNumberPattern(t *testing.T) {
	policy := config.DefaultScoringPolicy()
	svc := services.NewAnomalyService(policy)

	txns := []domain.Transaction{
		// Round and material
		{TransactionID: "r1", Date: day(3), Amount: decimal.NewFromInt(-60000), Category: "expenses", TransactionType: domain.Debit},
		// Round but below the materiality floor
		{TransactionID: "r2", Date: day(4), Amount: decimal.NewFromInt(-40000), Category: "expenses", TransactionType: domain.Debit},
		// Material but not round
		{TransactionID: "r3", Date: day(5), Amount: decimal.NewFromInt(-60013), Category: "expenses", TransactionType: domain.Debit},
	}

	anomalies := svc.DetectAnomalies(context.Background(), "comp-1", txns, decimal.NewFromInt(500000))
	round := onlyType(anomalies, domain.AnomalyRoundNumberPattern)

	require.Len(t, round, 1)
	assert.Equal(t, "r1", *round[0].TransactionID)
	assert.Equal(t, domain.SeverityLow, round[0].Severity)
}

func TestDetectAnomalies_CategoryMismatch(t *testing.T) {
	policy := config.DefaultScoringPolicy()
	svc := services.NewAnomalyService(policy)

	txns := []domain.Transaction{
		// Ingested category contradicts the description keywords.
		{TransactionID: "m1", Date: day(2), Amount: decimal.NewFromInt(-30000), Description: "office rent for premises", Category: "marketing", TransactionType: domain.Debit},
		// Uncategorized entries are never mismatches.
		{TransactionID: "m2", Date: day(2), Amount: decimal.NewFromInt(-500), Description: "office rent", Category: domain.CategoryUncategorized, TransactionType: domain.Debit},
	}

	anomalies := svc.DetectAnomalies(context.Background(), "comp-1", txns, decimal.NewFromInt(100000))
	mismatches := onlyType(anomalies, domain.AnomalyCategoryMismatch)

	require.Len(t, mismatches, 1)
	assert.Equal(t, "m1", *mismatches[0].TransactionID)
	assert.Equal(t, "rent", mismatches[0].Evidence.ExpectedCategory)
	assert.Equal(t, "marketing", mismatches[0].Evidence.ActualCategory)
}

func TestDetectAnomalies_NegativeBalanceRisk(t *testing.T) {
	policy := config.DefaultScoringPolicy()
	svc := services.NewAnomalyService(policy)

	txns := []domain.Transaction{
		{TransactionID: "n1", Date: day(1), Amount: decimal.NewFromInt(-8000), Category: "expenses", TransactionType: domain.Debit},
		{TransactionID: "n2", Date: day(2), Amount: decimal.NewFromInt(-5000), Category: "expenses", TransactionType: domain.Debit},
		{TransactionID: "n3", Date: day(3), Amount: decimal.NewFromInt(20000), Category: "revenue", TransactionType: domain.Credit},
	}

	anomalies := svc.DetectAnomalies(context.Background(), "comp-1", txns, decimal.NewFromInt(10000))
	negative := onlyType(anomalies, domain.AnomalyNegativeBalanceRisk)

	require.Len(t, negative, 1)
	assert.Equal(t, "n2", *negative[0].TransactionID)
	assert.Equal(t, domain.SeverityHigh, negative[0].Severity)
	assert.Equal(t, "2024-03-02", negative[0].Evidence.Date)
}

func TestDetectAnomalies_OrderIndependent(t *testing.T) {
	policy := config.DefaultScoringPolicy()
	svc := services.NewAnomalyService(policy)

	txns := baselineTransactions(8, 40000)
	txns = append(txns,
		domain.Transaction{TransactionID: "big-1", Date: day(9), Amount: decimal.NewFromInt(-700000), Description: "machinery", Category: "expenses", TransactionType: domain.Debit},
		domain.Transaction{TransactionID: "dup-2", Date: day(4), Amount: decimal.NewFromInt(-40000), Counterparty: stringPtr("X"), Category: "expenses", TransactionType: domain.Debit},
		domain.Transaction{TransactionID: "dup-1", Date: day(3), Amount: decimal.NewFromInt(-40000), Counterparty: stringPtr("X"), Category: "expenses", TransactionType: domain.Debit},
	)

	forward := svc.DetectAnomalies(context.Background(), "comp-1", txns, decimal.NewFromInt(2000000))

	reversed := make([]domain.Transaction, len(txns))
	for i, txn := range txns {
		reversed[len(txns)-1-i] = txn
	}
	backward := svc.DetectAnomalies(context.Background(), "comp-1", reversed, decimal.NewFromInt(2000000))

	assert.Equal(t, forward, backward)
}

func TestDetectAnomalies_RespectsRuleToggles(t *testing.T) {
	policy := config.DefaultScoringPolicy()
	policy.Anomaly.LargeTransaction.Enabled = false
	svc := services.NewAnomalyService(policy)

	txns := baselineTransactions(5, 30000)
	txns = append(txns, domain.Transaction{
		TransactionID:   "big-1",
		Date:            day(9),
		Amount:          decimal.NewFromInt(-900000),
		Description:     "machinery",
		Category:        "expenses",
		TransactionType: domain.Debit,
	})

	anomalies := svc.DetectAnomalies(context.Background(), "comp-1", txns, decimal.NewFromInt(2000000))
	assert.Empty(t, onlyType(anomalies, domain.AnomalyLargeTransaction))
}

func TestDetectAnomalies_EmptyInput(t *testing.T) {
	svc := services.NewAnomalyService(config.DefaultScoringPolicy())
	anomalies := svc.DetectAnomalies(context.Background(), "comp-1", nil, decimal.Zero)
	require.NotNil(t, anomalies)
	assert.Empty(t, anomalies)
}
