package domain

import (
	"github.com/shopspring/decimal"
)

// AnomalyType enumerates the transaction irregularities the detector can flag.
type AnomalyType string

const (
	AnomalyLargeTransaction     AnomalyType = "large_transaction"
	AnomalyDuplicateTransaction AnomalyType = "duplicate_transaction"
	AnomalyRoundNumberPattern   AnomalyType = "round_number_pattern"
	AnomalyUnusualFrequency     AnomalyType = "unusual_frequency"
	AnomalyCategoryMismatch     AnomalyType = "category_mismatch"
	AnomalyNegativeBalanceRisk  AnomalyType = "negative_balance_risk"
)

// Severity grades an anomaly. It never exceeds critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for prioritization (1 = most urgent).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 1
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 3
	default:
		return 4
	}
}

// AnomalyEvidence is the structured support for a flag: the triggering amount,
// the computed threshold it was measured against and the baseline it deviates
// from. Fields irrelevant to a rule stay nil.
type AnomalyEvidence struct {
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	Threshold        *decimal.Decimal `json:"threshold,omitempty"`
	BaselineAverage  *decimal.Decimal `json:"baselineAverage,omitempty"`
	Occurrences      *int             `json:"occurrences,omitempty"`
	ExpectedCategory string           `json:"expectedCategory,omitempty"`
	ActualCategory   string           `json:"actualCategory,omitempty"`
	Date             string           `json:"date,omitempty"` // YYYY-MM-DD when the rule is day-scoped
}

// Anomaly is one flagged irregularity produced by a scoring run. The engine only
// ever appends new, unresolved anomalies; resolution is a downstream human
// workflow recorded through the repository.
type Anomaly struct {
	AnomalyID       string          `json:"anomalyID"`
	CompanyID       string          `json:"companyID"`
	TransactionID   *string         `json:"transactionID,omitempty"`
	Type            AnomalyType     `json:"type"`
	Severity        Severity        `json:"severity"`
	Description     string          `json:"description"`
	Evidence        AnomalyEvidence `json:"evidence"`
	IsResolved      bool            `json:"isResolved"`
	ResolutionNotes *string         `json:"resolutionNotes,omitempty"`
	AuditFields
}
