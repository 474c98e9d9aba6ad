package services

import (
	"context"
	"time"

	"github.com/finpulse/fin_health_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AnalysisRequest is the full input of one scoring run. The timestamp is
// caller-supplied so that identical inputs reproduce identical results.
type AnalysisRequest struct {
	CompanyID      string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	OpeningBalance decimal.Decimal
	Transactions   []domain.Transaction
	BalanceSheet   domain.BalanceSheetSnapshot
	RequestedBy    string
	Timestamp      time.Time
}

// AnalysisResult bundles everything one scoring run produces.
type AnalysisResult struct {
	HealthScore     domain.HealthScore
	Ratios          domain.RatioSet
	Aggregate       domain.PeriodAggregate
	Anomalies       []domain.Anomaly
	Recommendations []domain.Recommendation
	Narrative       domain.AssessmentNarrative
}

// TransactionNormalizerSvc classifies raw transactions. It returns a new slice
// of the same length; caller-owned input is never mutated.
type TransactionNormalizerSvc interface {
	Normalize(ctx context.Context, transactions []domain.Transaction) []domain.Transaction
}

// RatioCalculatorSvc computes the standardized ratio set for one period.
type RatioCalculatorSvc interface {
	CalculateRatios(ctx context.Context, aggregate domain.PeriodAggregate) (domain.RatioSet, error)
}

// AnomalyDetectorSvc scans a normalized transaction list for irregularities.
// The result is order-independent with respect to the input sequence and never
// nil. Emitted anomalies carry no IDs or audit fields; the orchestrator assigns
// those before persistence.
type AnomalyDetectorSvc interface {
	DetectAnomalies(ctx context.Context, companyID string, transactions []domain.Transaction, openingBalance decimal.Decimal) []domain.Anomaly
}

// CompositeScorerSvc maps ratios and anomaly pressure into one health score.
// prior may be nil when the company has no earlier score.
type CompositeScorerSvc interface {
	Score(ctx context.Context, companyID string, ratios domain.RatioSet, anomalies []domain.Anomaly, prior *domain.HealthScore, periodStart, periodEnd time.Time) (domain.HealthScore, error)
}

// NarrativeSvc renders deterministic narrative text and recommendations from a
// scoring result.
type NarrativeSvc interface {
	BuildNarrative(score domain.HealthScore, ratios domain.RatioSet, anomalies []domain.Anomaly) domain.AssessmentNarrative
	BuildRecommendations(score domain.HealthScore, anomalies []domain.Anomaly) []domain.Recommendation
}

// ScoringSvcFacade is the engine's front door: it orchestrates one scoring run
// end to end and exposes the persisted results.
type ScoringSvcFacade interface {
	AnalyzeCompanyPeriod(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
	GetLatestHealthScore(ctx context.Context, companyID string) (*domain.HealthScore, error)
	ListHealthScores(ctx context.Context, companyID string, limit, offset int) ([]domain.HealthScore, error)
	ListAnomalies(ctx context.Context, companyID string, filter AnomalyFilter) ([]domain.Anomaly, error)
	ResolveAnomaly(ctx context.Context, anomalyID, notes, resolvedBy string) (*domain.Anomaly, error)
}

// AnomalyFilter narrows anomaly listings.
type AnomalyFilter struct {
	Severity       *domain.Severity
	UnresolvedOnly bool
	Limit          int
	Offset         int
}

// CompanySvcFacade manages the companies scoring runs are attributed to.
type CompanySvcFacade interface {
	CreateCompany(ctx context.Context, company domain.Company) (*domain.Company, error)
	GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)
}
