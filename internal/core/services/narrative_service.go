package services

import (
	"fmt"
	"sort"

	"github.com/finpulse/fin_health_app/internal/core/domain"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/finpulse/fin_health_app/internal/platform/config"
	"github.com/shopspring/decimal"
)

// componentLabels are the display names used in narrative text.
var componentLabels = map[domain.ComponentKind]string{
	domain.ComponentCashFlow:      "Cash Flow",
	domain.ComponentProfitability: "Profitability",
	domain.ComponentLeverage:      "Leverage",
	domain.ComponentEfficiency:    "Efficiency",
	domain.ComponentStability:     "Stability",
}

// riskSummaries are the narrative lead paragraphs, keyed by risk level.
// Interpolated with overall score and credit rating.
var riskSummaries = map[domain.RiskLevel]string{
	domain.RiskLow:      "Financial health is strong at %s/100 (%s rating). Fundamentals support day-to-day obligations and leave headroom for growth.",
	domain.RiskMedium:   "Financial health is broadly sound at %s/100 (%s rating), with specific areas requiring attention before they erode the position.",
	domain.RiskHigh:     "Financial health is strained at %s/100 (%s rating). Several metrics sit below acceptable levels and need corrective action.",
	domain.RiskCritical: "Financial health is critical at %s/100 (%s rating). Immediate corrective action is required to prevent financial distress.",
}

// recommendationTemplate is one fixed entry of the category/anomaly
// recommendation tables.
type recommendationTemplate struct {
	category    string
	title       string
	description string
	impact      string
	steps       []string
}

var componentRecommendations = map[domain.ComponentKind]recommendationTemplate{
	domain.ComponentCashFlow: {
		category:    "liquidity",
		title:       "Improve Liquidity Position",
		description: "Liquidity ratios are below benchmark. Maintain higher cash reserves and negotiate longer payment terms with suppliers.",
		impact:      "Better ability to meet short-term obligations",
		steps: []string{
			"Build a cash reserve equivalent to 2 months of expenses",
			"Negotiate net-45 or net-60 payment terms with suppliers",
			"Accelerate collections on overdue receivables",
		},
	},
	domain.ComponentProfitability: {
		category:    "profitability",
		title:       "Improve Profit Margins",
		description: "Margins are below industry average. Review pricing strategy and cost structure.",
		impact:      "Increased profitability and retained earnings",
		steps: []string{
			"Review pricing with cost-plus analysis",
			"Consolidate vendors for bulk discounts",
			"Audit recurring expenses for potential cuts",
		},
	},
	domain.ComponentLeverage: {
		category:    "leverage",
		title:       "Reduce Debt Burden",
		description: "Leverage ratios are high. Accelerate debt repayment or explore equity financing options.",
		impact:      "Lower interest costs and improved financial flexibility",
		steps: []string{
			"Prioritize repayment of the most expensive debt",
			"Explore equity infusion to reduce the debt burden",
			"Consolidate facilities to reduce the blended rate",
		},
	},
	domain.ComponentEfficiency: {
		category:    "efficiency",
		title:       "Improve Working Capital Efficiency",
		description: "Turnover ratios indicate capital tied up in receivables or inventory.",
		impact:      "Faster cash conversion and reduced financing needs",
		steps: []string{
			"Implement invoice discounting for faster collection",
			"Tighten credit terms for slow-paying customers",
			"Optimize inventory levels against demand",
		},
	},
	domain.ComponentStability: {
		category:    "dscr",
		title:       "Strengthen Debt Service Coverage",
		description: "Coverage of debt obligations from operating income is thin. Improve operating income or restructure debt payments.",
		impact:      "Better loan eligibility and lower borrowing costs",
		steps: []string{
			"Consider debt restructuring for extended terms",
			"Prioritize high-margin orders",
			"Defer discretionary capital expenditure",
		},
	},
}

var anomalyRecommendations = map[domain.AnomalyType]recommendationTemplate{
	domain.AnomalyLargeTransaction: {
		category:    "controls",
		title:       "Review Large Transactions",
		description: "One or more transactions fall far outside the normal range. Verify supporting documentation.",
		impact:      "Reduced exposure to unauthorized or erroneous payments",
		steps: []string{
			"Verify supporting documents for each flagged transaction",
			"Introduce a two-person approval threshold for large payments",
		},
	},
	domain.AnomalyDuplicateTransaction: {
		category:    "controls",
		title:       "Investigate Possible Duplicate Payments",
		description: "Repeated identical entries may indicate double-entry or fraud.",
		impact:      "Recovery of duplicated outflows",
		steps: []string{
			"Reconcile flagged entries against invoices",
			"Enable duplicate detection in the payment workflow",
		},
	},
	domain.AnomalyNegativeBalanceRisk: {
		category:    "liquidity",
		title:       "Address Negative Balance Exposure",
		description: "The running balance dips below zero within the period.",
		impact:      "Avoided overdraft costs and bounced obligations",
		steps: []string{
			"Arrange a working-capital facility before the shortfall date",
			"Re-sequence discretionary payments after expected inflows",
		},
	},
	domain.AnomalyUnusualFrequency: {
		category:    "controls",
		title:       "Review Unusual Activity Spikes",
		description: "Transaction volume on flagged days far exceeds the period average.",
		impact:      "Early detection of unauthorized batch activity",
		steps: []string{
			"Match flagged days against known business events",
			"Review access logs for the flagged dates",
		},
	},
	domain.AnomalyRoundNumberPattern: {
		category:    "controls",
		title:       "Verify Round-Number Entries",
		description: "Material round-number amounts are statistically associated with manual entries.",
		impact:      "Improved ledger accuracy",
		steps: []string{
			"Trace flagged amounts to source documents",
		},
	},
	domain.AnomalyCategoryMismatch: {
		category:    "data_quality",
		title:       "Correct Transaction Categorization",
		description: "Assigned categories contradict description evidence, which degrades ratio quality.",
		impact:      "More reliable scoring inputs",
		steps: []string{
			"Re-categorize the flagged transactions",
			"Update ingestion mapping rules",
		},
	},
}

// narrativeService implements the NarrativeSvc interface. It is pure template
// expansion: no clock, no randomness, no external calls, so identical inputs
// produce byte-identical output.
type narrativeService struct {
	BaseService
	needsAttention decimal.Decimal
}

// NewNarrativeService creates a new narrative formatter.
func NewNarrativeService(policy config.ScoringPolicy) portssvc.NarrativeSvc {
	return &narrativeService{needsAttention: decimal.NewFromFloat(policy.NeedsAttentionThreshold)}
}

var _ portssvc.NarrativeSvc = (*narrativeService)(nil)

// definedComponentsAscending returns the defined component scores sorted worst
// first, with the canonical component order breaking score ties.
func definedComponentsAscending(score domain.HealthScore) []domain.ComponentScore {
	var defined []domain.ComponentScore
	for _, c := range score.Components {
		if c.Score.IsDefined() {
			defined = append(defined, c)
		}
	}
	sort.SliceStable(defined, func(i, j int) bool {
		return defined[i].Score.Value().LessThan(defined[j].Score.Value())
	})
	return defined
}

// BuildNarrative renders the assessment narrative for one scoring run.
func (s *narrativeService) BuildNarrative(score domain.HealthScore, ratios domain.RatioSet, anomalies []domain.Anomaly) domain.AssessmentNarrative {
	narrative := domain.AssessmentNarrative{
		Summary: fmt.Sprintf(riskSummaries[score.RiskLevel], score.OverallScore.StringFixed(1), score.CreditRating),
	}

	weakest := definedComponentsAscending(score)
	if len(weakest) > 2 {
		weakest = weakest[:2]
	}
	for _, c := range weakest {
		if c.Score.Value().LessThan(s.needsAttention) {
			narrative.Summary += fmt.Sprintf(" %s (%s/100) is the area most in need of attention.", componentLabels[c.Component], c.Score.Value().StringFixed(1))
			break
		}
	}

	for _, kind := range domain.ComponentOrder {
		c, ok := score.Component(kind)
		if !ok {
			continue
		}
		if c.Score.IsDefined() {
			narrative.Breakdown = append(narrative.Breakdown, fmt.Sprintf("%s: %s/100 (weight %s)", componentLabels[kind], c.Score.Value().StringFixed(1), c.Weight.StringFixed(0)))
		} else {
			narrative.Breakdown = append(narrative.Breakdown, fmt.Sprintf("%s: insufficient data (%s)", componentLabels[kind], c.Score.Reason()))
		}
	}

	for _, c := range definedComponentsAscending(score) {
		if c.Score.Value().LessThan(s.needsAttention) {
			narrative.FocusAreas = append(narrative.FocusAreas, fmt.Sprintf("%s: score of %s/100 indicates room for improvement", componentLabels[c.Component], c.Score.Value().StringFixed(1)))
		}
	}
	if len(narrative.FocusAreas) == 0 {
		narrative.FocusAreas = append(narrative.FocusAreas, "All scored metrics are performing well. Maintain current practices.")
	}

	critical, high := 0, 0
	for _, anomaly := range anomalies {
		switch anomaly.Severity {
		case domain.SeverityCritical:
			critical++
		case domain.SeverityHigh:
			high++
		}
	}
	if critical > 0 {
		narrative.Concerns = append(narrative.Concerns, fmt.Sprintf("%d critical anomaly flag(s) require immediate review", critical))
	}
	if high > 0 {
		narrative.Concerns = append(narrative.Concerns, fmt.Sprintf("%d high-severity anomaly flag(s) are open", high))
	}
	if len(anomalies) >= 3 {
		narrative.Concerns = append(narrative.Concerns, fmt.Sprintf("%d anomalies in total elevate the period's risk profile", len(anomalies)))
	}

	return narrative
}

// componentPriority ranks how urgent a below-threshold component is: the further
// below the threshold, the more urgent.
func componentPriority(score decimal.Decimal) int {
	switch {
	case score.LessThan(decimal.NewFromInt(40)):
		return 1
	case score.LessThan(decimal.NewFromInt(55)):
		return 2
	default:
		return 3
	}
}

// BuildRecommendations derives the prioritized recommendation list: one entry
// per component below the needs-attention threshold and one per open
// high/critical anomaly. Priority is the severity rank; ties order by ascending
// component score, worst first.
func (s *narrativeService) BuildRecommendations(score domain.HealthScore, anomalies []domain.Anomaly) []domain.Recommendation {
	type ranked struct {
		rec      domain.Recommendation
		tiebreak decimal.Decimal
	}
	var out []ranked

	for _, c := range definedComponentsAscending(score) {
		if !c.Score.Value().LessThan(s.needsAttention) {
			continue
		}
		template, ok := componentRecommendations[c.Component]
		if !ok {
			continue
		}
		out = append(out, ranked{
			rec: domain.Recommendation{
				Category:            template.category,
				Priority:            componentPriority(c.Score.Value()),
				Title:               template.title,
				Description:         template.description,
				PotentialImpact:     template.impact,
				ImplementationSteps: template.steps,
			},
			tiebreak: c.Score.Value(),
		})
	}

	seen := make(map[domain.AnomalyType]bool)
	for _, anomaly := range anomalies {
		if anomaly.Severity != domain.SeverityHigh && anomaly.Severity != domain.SeverityCritical {
			continue
		}
		if seen[anomaly.Type] {
			continue
		}
		seen[anomaly.Type] = true
		template, ok := anomalyRecommendations[anomaly.Type]
		if !ok {
			continue
		}
		out = append(out, ranked{
			rec: domain.Recommendation{
				Category:            template.category,
				Priority:            anomaly.Severity.Rank(),
				Title:               template.title,
				Description:         template.description,
				PotentialImpact:     template.impact,
				ImplementationSteps: template.steps,
			},
			tiebreak: hundred,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].rec.Priority != out[j].rec.Priority {
			return out[i].rec.Priority < out[j].rec.Priority
		}
		return out[i].tiebreak.LessThan(out[j].tiebreak)
	})

	recommendations := make([]domain.Recommendation, len(out))
	for i, r := range out {
		recommendations[i] = r.rec
	}
	return recommendations
}
