package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel is the banded risk classification derived from the overall score and
// anomaly pressure.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskOrder ranks risk levels from safest to worst for band arithmetic.
var riskOrder = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// Band returns the ordinal of the risk level (0 = low ... 3 = critical).
func (r RiskLevel) Band() int {
	for i, level := range riskOrder {
		if level == r {
			return i
		}
	}
	return len(riskOrder) - 1
}

// Escalate moves the risk one band toward critical, saturating at critical.
func (r RiskLevel) Escalate() RiskLevel {
	band := r.Band() + 1
	if band >= len(riskOrder) {
		band = len(riskOrder) - 1
	}
	return riskOrder[band]
}

// CreditRating is the seven-point letter scale mapped monotonically from the
// overall score.
type CreditRating string

const (
	RatingAAA CreditRating = "AAA"
	RatingAA  CreditRating = "AA"
	RatingA   CreditRating = "A"
	RatingBBB CreditRating = "BBB"
	RatingBB  CreditRating = "BB"
	RatingB   CreditRating = "B"
	RatingCCC CreditRating = "CCC"
)

// ComponentKind names one of the five sub-scores of the overall health score.
type ComponentKind string

const (
	ComponentCashFlow      ComponentKind = "cash_flow"
	ComponentProfitability ComponentKind = "profitability"
	ComponentLeverage      ComponentKind = "leverage"
	ComponentEfficiency    ComponentKind = "efficiency"
	ComponentStability     ComponentKind = "stability"
)

// ComponentOrder is the canonical presentation order of the five components.
var ComponentOrder = []ComponentKind{
	ComponentCashFlow,
	ComponentProfitability,
	ComponentLeverage,
	ComponentEfficiency,
	ComponentStability,
}

// ComponentScore is one 0-100 bounded sub-score with its policy weight. The
// score metric is Undefined when every contributing ratio was undefined; such a
// component is excluded from the weighted sum with the remaining weights
// renormalized.
type ComponentScore struct {
	Component ComponentKind   `json:"component"`
	Score     Metric          `json:"score"`
	Weight    decimal.Decimal `json:"weight"`
}

// HealthScore is the immutable result of one scoring run. New runs produce new
// records; PreviousScore and ScoreChange are diffed against the most recent
// prior run for the same company.
type HealthScore struct {
	ScoreID       string           `json:"scoreID"`
	CompanyID     string           `json:"companyID"`
	PolicyVersion string           `json:"policyVersion"`
	OverallScore  decimal.Decimal  `json:"overallScore"` // Rounded to one decimal place
	Components    []ComponentScore `json:"components"`
	RiskLevel     RiskLevel        `json:"riskLevel"`
	CreditRating  CreditRating     `json:"creditRating"`
	PreviousScore *decimal.Decimal `json:"previousScore,omitempty"`
	ScoreChange   *decimal.Decimal `json:"scoreChange,omitempty"`
	PeriodStart   time.Time        `json:"periodStart"`
	PeriodEnd     time.Time        `json:"periodEnd"`
	AuditFields
}

// Component looks up one component score by kind.
func (h HealthScore) Component(kind ComponentKind) (ComponentScore, bool) {
	for _, c := range h.Components {
		if c.Component == kind {
			return c, true
		}
	}
	return ComponentScore{}, false
}
