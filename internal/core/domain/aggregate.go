package domain

import (
	"time"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// BalanceSheetSnapshot carries the balance-sheet figures a scoring run needs but
// cannot derive from the transaction stream. Every field is individually optional
// (nil means "unknown", which is distinct from zero); ratios depending on a
// missing field come out undefined instead of failing the run.
//
// The average_* fields are caller-supplied period averages, by convention
// (opening + closing) / 2. The engine treats them as opaque inputs.
type BalanceSheetSnapshot struct {
	CurrentAssets            *decimal.Decimal `json:"currentAssets,omitempty"`
	CurrentLiabilities       *decimal.Decimal `json:"currentLiabilities,omitempty"`
	Inventory                *decimal.Decimal `json:"inventory,omitempty"`
	CashAndEquivalents       *decimal.Decimal `json:"cashAndEquivalents,omitempty"`
	TotalDebt                *decimal.Decimal `json:"totalDebt,omitempty"`
	Equity                   *decimal.Decimal `json:"equity,omitempty"`
	TotalAssets              *decimal.Decimal `json:"totalAssets,omitempty"`
	EBIT                     *decimal.Decimal `json:"ebit,omitempty"`
	InterestExpense          *decimal.Decimal `json:"interestExpense,omitempty"`
	AnnualDebtService        *decimal.Decimal `json:"annualDebtService,omitempty"`
	AnnualNetOperatingIncome *decimal.Decimal `json:"annualNetOperatingIncome,omitempty"`
	Revenue                  *decimal.Decimal `json:"revenue,omitempty"`
	GrossProfit              *decimal.Decimal `json:"grossProfit,omitempty"`
	NetIncome                *decimal.Decimal `json:"netIncome,omitempty"`
	AverageReceivables       *decimal.Decimal `json:"averageReceivables,omitempty"`
	AveragePayables          *decimal.Decimal `json:"averagePayables,omitempty"`
	AverageInventory         *decimal.Decimal `json:"averageInventory,omitempty"`
}

// IsEmpty reports whether no balance-sheet field at all was supplied.
func (s BalanceSheetSnapshot) IsEmpty() bool {
	fields := []*decimal.Decimal{
		s.CurrentAssets, s.CurrentLiabilities, s.Inventory, s.CashAndEquivalents,
		s.TotalDebt, s.Equity, s.TotalAssets, s.EBIT, s.InterestExpense,
		s.AnnualDebtService, s.AnnualNetOperatingIncome, s.Revenue, s.GrossProfit,
		s.NetIncome, s.AverageReceivables, s.AveragePayables, s.AverageInventory,
	}
	for _, f := range fields {
		if f != nil {
			return false
		}
	}
	return true
}

// Validate rejects values that are structurally impossible. Fields that can
// legitimately be negative (equity, EBIT, operating income, profit figures)
// are not checked here.
func (s BalanceSheetSnapshot) Validate() error {
	nonNegative := map[string]*decimal.Decimal{
		"currentAssets":      s.CurrentAssets,
		"currentLiabilities": s.CurrentLiabilities,
		"inventory":          s.Inventory,
		"cashAndEquivalents": s.CashAndEquivalents,
		"totalDebt":          s.TotalDebt,
		"totalAssets":        s.TotalAssets,
		"interestExpense":    s.InterestExpense,
		"annualDebtService":  s.AnnualDebtService,
		"revenue":            s.Revenue,
		"averageReceivables": s.AverageReceivables,
		"averagePayables":    s.AveragePayables,
		"averageInventory":   s.AverageInventory,
	}
	for field, value := range nonNegative {
		if value != nil && value.IsNegative() {
			return &apperrors.InvalidAggregateError{Field: field, Detail: "must not be negative, got " + value.String()}
		}
	}
	return nil
}

// PeriodAggregate is the full input of one scoring run: transaction-derived sums
// for a (company, period) window plus the declared balance-sheet snapshot. It is
// constructed fresh per run and never persisted.
type PeriodAggregate struct {
	CompanyID          string               `json:"companyID"`
	PeriodStart        time.Time            `json:"periodStart"`
	PeriodEnd          time.Time            `json:"periodEnd"`
	TotalInflows       decimal.Decimal      `json:"totalInflows"`
	TotalOutflows      decimal.Decimal      `json:"totalOutflows"` // Magnitude, always >= 0
	NetCashFlow        decimal.Decimal      `json:"netCashFlow"`
	OpeningBalance     decimal.Decimal      `json:"openingBalance"`
	ClosingBalance     decimal.Decimal      `json:"closingBalance"`
	TransactionCount   int                  `json:"transactionCount"`
	AverageTransaction decimal.Decimal      `json:"averageTransaction"` // Mean absolute amount
	LargestInflow      decimal.Decimal      `json:"largestInflow"`
	LargestOutflow     decimal.Decimal      `json:"largestOutflow"`
	BalanceSheet       BalanceSheetSnapshot `json:"balanceSheet"`
}

// NewPeriodAggregate derives the period sums from classified transactions and
// attaches the declared balance sheet. The snapshot is validated here so that a
// structurally invalid input is rejected before any ratio is computed.
func NewPeriodAggregate(companyID string, start, end time.Time, openingBalance decimal.Decimal, transactions []Transaction, sheet BalanceSheetSnapshot) (PeriodAggregate, error) {
	if err := sheet.Validate(); err != nil {
		return PeriodAggregate{}, err
	}

	agg := PeriodAggregate{
		CompanyID:      companyID,
		PeriodStart:    start,
		PeriodEnd:      end,
		OpeningBalance: openingBalance,
		BalanceSheet:   sheet,
	}

	totalAbs := decimal.Zero
	for _, txn := range transactions {
		abs := txn.AbsAmount()
		totalAbs = totalAbs.Add(abs)
		if txn.TransactionType == Credit {
			agg.TotalInflows = agg.TotalInflows.Add(abs)
			if abs.GreaterThan(agg.LargestInflow) {
				agg.LargestInflow = abs
			}
		} else {
			agg.TotalOutflows = agg.TotalOutflows.Add(abs)
			if abs.GreaterThan(agg.LargestOutflow) {
				agg.LargestOutflow = abs
			}
		}
	}

	agg.TransactionCount = len(transactions)
	agg.NetCashFlow = agg.TotalInflows.Sub(agg.TotalOutflows)
	agg.ClosingBalance = openingBalance.Add(agg.NetCashFlow)
	if len(transactions) > 0 {
		agg.AverageTransaction = totalAbs.Div(decimal.NewFromInt(int64(len(transactions))))
	}

	return agg, nil
}
