package services

import (
	"context"
	"log/slog"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/finpulse/fin_health_app/internal/core/domain"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// ratioService implements the RatioCalculatorSvc interface.
type ratioService struct {
	BaseService
}

// NewRatioService creates a new ratio calculator.
func NewRatioService() portssvc.RatioCalculatorSvc {
	return &ratioService{}
}

var _ portssvc.RatioCalculatorSvc = (*ratioService)(nil)

var hundred = decimal.NewFromInt(100)

// ratioOf divides two optional figures into a metric. A missing operand or a
// zero denominator yields an undefined metric naming the cause; partial
// financial data is the common case for SMEs, so the calculation degrades
// instead of aborting the run.
func ratioOf(numerator *decimal.Decimal, numeratorName string, denominator *decimal.Decimal, denominatorName string) domain.Metric {
	if numerator == nil {
		return domain.UndefinedMetric("missing " + numeratorName)
	}
	if denominator == nil {
		return domain.UndefinedMetric("missing " + denominatorName)
	}
	if denominator.IsZero() {
		return domain.UndefinedMetric(denominatorName + " is zero")
	}
	return domain.DefinedMetric(numerator.Div(*denominator))
}

// ratioOverPositive is ratioOf for denominators that must be strictly positive
// for the ratio to mean anything, e.g. equity in debt_to_equity.
func ratioOverPositive(numerator *decimal.Decimal, numeratorName string, denominator *decimal.Decimal, denominatorName string) domain.Metric {
	if denominator != nil && denominator.IsNegative() {
		return domain.UndefinedMetric("non-positive " + denominatorName)
	}
	return ratioOf(numerator, numeratorName, denominator, denominatorName)
}

// percentOf is ratioOf scaled to a percentage.
func percentOf(numerator *decimal.Decimal, numeratorName string, denominator *decimal.Decimal, denominatorName string) domain.Metric {
	m := ratioOf(numerator, numeratorName, denominator, denominatorName)
	if !m.IsDefined() {
		return m
	}
	return domain.DefinedMetric(m.Value().Mul(hundred))
}

// CalculateRatios computes the full standardized ratio set from one period
// aggregate. Each ratio is a pure function of the aggregate; any ratio whose
// inputs are absent or whose denominator is zero comes out undefined. An
// entirely absent balance sheet fails fast: the calculator cannot distinguish
// "zero" from "unknown", and an all-undefined result masquerading as a
// completed run would be worse than an error.
func (s *ratioService) CalculateRatios(ctx context.Context, aggregate domain.PeriodAggregate) (domain.RatioSet, error) {
	sheet := aggregate.BalanceSheet
	if sheet.IsEmpty() {
		err := &apperrors.MissingInputError{Input: "balance-sheet snapshot"}
		s.LogError(ctx, err, "Cannot compute ratios without any balance-sheet figures",
			slog.String("company_id", aggregate.CompanyID))
		return domain.RatioSet{}, err
	}

	var quickAssets *decimal.Decimal
	if sheet.CurrentAssets != nil && sheet.Inventory != nil {
		qa := sheet.CurrentAssets.Sub(*sheet.Inventory)
		quickAssets = &qa
	}

	ratios := domain.RatioSet{
		// Liquidity
		CurrentRatio: ratioOf(sheet.CurrentAssets, "currentAssets", sheet.CurrentLiabilities, "currentLiabilities"),
		QuickRatio:   ratioOf(quickAssets, "currentAssets less inventory", sheet.CurrentLiabilities, "currentLiabilities"),
		CashRatio:    ratioOf(sheet.CashAndEquivalents, "cashAndEquivalents", sheet.CurrentLiabilities, "currentLiabilities"),

		// Leverage
		DebtToEquity:          ratioOverPositive(sheet.TotalDebt, "totalDebt", sheet.Equity, "equity"),
		DebtToAssets:          ratioOf(sheet.TotalDebt, "totalDebt", sheet.TotalAssets, "totalAssets"),
		InterestCoverageRatio: ratioOf(sheet.EBIT, "ebit", sheet.InterestExpense, "interestExpense"),

		// Efficiency: turnover is measured against revenue, with the average_*
		// fields supplied by the caller as period averages.
		ReceivablesTurnover: ratioOf(sheet.Revenue, "revenue", sheet.AverageReceivables, "averageReceivables"),
		PayablesTurnover:    ratioOf(sheet.Revenue, "revenue", sheet.AveragePayables, "averagePayables"),
		InventoryTurnover:   ratioOf(sheet.Revenue, "revenue", sheet.AverageInventory, "averageInventory"),

		// Profitability, margins as percentages
		GrossMargin:     percentOf(sheet.GrossProfit, "grossProfit", sheet.Revenue, "revenue"),
		OperatingMargin: percentOf(sheet.EBIT, "ebit", sheet.Revenue, "revenue"),
		NetMargin:       percentOf(sheet.NetIncome, "netIncome", sheet.Revenue, "revenue"),
		ReturnOnAssets:  ratioOf(sheet.NetIncome, "netIncome", sheet.TotalAssets, "totalAssets"),
		ReturnOnEquity:  ratioOverPositive(sheet.NetIncome, "netIncome", sheet.Equity, "equity"),

		// Debt service
		DSCR: ratioOf(sheet.AnnualNetOperatingIncome, "annualNetOperatingIncome", sheet.AnnualDebtService, "annualDebtService"),
	}

	s.LogDebug(ctx, "Ratio set computed",
		slog.String("company_id", aggregate.CompanyID),
		slog.Int("transaction_count", aggregate.TransactionCount))
	return ratios, nil
}
