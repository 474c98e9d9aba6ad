package domain_test

import (
	"testing"
	"time"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/finpulse/fin_health_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func TestNewPeriodAggregate_DerivesSums(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	transactions := []domain.Transaction{
		{TransactionID: "t1", Amount: decimal.NewFromInt(1000), TransactionType: domain.Credit},
		{TransactionID: "t2", Amount: decimal.NewFromInt(-400), TransactionType: domain.Debit},
		{TransactionID: "t3", Amount: decimal.NewFromInt(2500), TransactionType: domain.Credit},
		{TransactionID: "t4", Amount: decimal.NewFromInt(-100), TransactionType: domain.Debit},
	}

	agg, err := domain.NewPeriodAggregate("comp-1", start, end, decimal.NewFromInt(500), transactions, domain.BalanceSheetSnapshot{})
	require.NoError(t, err)

	assert.Equal(t, "comp-1", agg.CompanyID)
	assert.Equal(t, 4, agg.TransactionCount)
	assert.True(t, agg.TotalInflows.Equal(decimal.NewFromInt(3500)), "inflows: %s", agg.TotalInflows)
	assert.True(t, agg.TotalOutflows.Equal(decimal.NewFromInt(500)), "outflows: %s", agg.TotalOutflows)
	assert.True(t, agg.NetCashFlow.Equal(decimal.NewFromInt(3000)))
	assert.True(t, agg.ClosingBalance.Equal(decimal.NewFromInt(3500)))
	assert.True(t, agg.AverageTransaction.Equal(decimal.NewFromInt(1000)))
	assert.True(t, agg.LargestInflow.Equal(decimal.NewFromInt(2500)))
	assert.True(t, agg.LargestOutflow.Equal(decimal.NewFromInt(400)))
}

func TestNewPeriodAggregate_EmptyTransactions(t *testing.T) {
	agg, err := domain.NewPeriodAggregate("comp-1", time.Now(), time.Now(), decimal.NewFromInt(250), nil, domain.BalanceSheetSnapshot{})
	require.NoError(t, err)

	assert.Equal(t, 0, agg.TransactionCount)
	assert.True(t, agg.AverageTransaction.IsZero())
	assert.True(t, agg.ClosingBalance.Equal(decimal.NewFromInt(250)))
}

func TestNewPeriodAggregate_RejectsNegativeNonNegatives(t *testing.T) {
	sheet := domain.BalanceSheetSnapshot{
		CurrentAssets: decimalPtr(decimal.NewFromInt(-10)),
	}

	_, err := domain.NewPeriodAggregate("comp-1", time.Now(), time.Now(), decimal.Zero, nil, sheet)
	require.Error(t, err)

	var invalid *apperrors.InvalidAggregateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "currentAssets", invalid.Field)
}

func TestBalanceSheetSnapshot_AllowsNegativeEquityAndProfit(t *testing.T) {
	sheet := domain.BalanceSheetSnapshot{
		Equity:    decimalPtr(decimal.NewFromInt(-5000)),
		NetIncome: decimalPtr(decimal.NewFromInt(-1200)),
		EBIT:      decimalPtr(decimal.NewFromInt(-300)),
	}
	assert.NoError(t, sheet.Validate())
}

func TestBalanceSheetSnapshot_IsEmpty(t *testing.T) {
	assert.True(t, domain.BalanceSheetSnapshot{}.IsEmpty())
	assert.False(t, domain.BalanceSheetSnapshot{Revenue: decimalPtr(decimal.NewFromInt(1))}.IsEmpty())
}
