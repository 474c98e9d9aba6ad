package services_test

import (
	"testing"

	"github.com/finpulse/fin_health_app/internal/core/domain"
	"github.com/finpulse/fin_health_app/internal/core/services"
	"github.com/finpulse/fin_health_app/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoreWithComponents(overall float64, risk domain.RiskLevel, rating domain.CreditRating, componentScores map[domain.ComponentKind]float64) domain.HealthScore {
	score := domain.HealthScore{
		OverallScore: decimal.NewFromFloat(overall),
		RiskLevel:    risk,
		CreditRating: rating,
	}
	for _, kind := range domain.ComponentOrder {
		c := domain.ComponentScore{Component: kind, Weight: decimal.NewFromInt(20)}
		if v, ok := componentScores[kind]; ok {
			c.Score = domain.DefinedMetric(decimal.NewFromFloat(v))
		} else {
			c.Score = domain.UndefinedMetric("all contributing ratios undefined")
		}
		score.Components = append(score.Components, c)
	}
	return score
}

func TestBuildNarrative_Deterministic(t *testing.T) {
	svc := services.NewNarrativeService(config.DefaultScoringPolicy())
	score := scoreWithComponents(72.5, domain.RiskMedium, domain.RatingA, map[domain.ComponentKind]float64{
		domain.ComponentCashFlow:      85,
		domain.ComponentProfitability: 45,
		domain.ComponentLeverage:      88,
	})
	anomalies := []domain.Anomaly{{Type: domain.AnomalyLargeTransaction, Severity: domain.SeverityHigh}}

	first := svc.BuildNarrative(score, domain.RatioSet{}, anomalies)
	second := svc.BuildNarrative(score, domain.RatioSet{}, anomalies)
	assert.Equal(t, first, second, "identical inputs must render identical narratives")
}

func TestBuildNarrative_Content(t *testing.T) {
	svc := services.NewNarrativeService(config.DefaultScoringPolicy())
	score := scoreWithComponents(72.5, domain.RiskMedium, domain.RatingA, map[domain.ComponentKind]float64{
		domain.ComponentCashFlow:      85,
		domain.ComponentProfitability: 45,
		domain.ComponentLeverage:      88,
	})

	narrative := svc.BuildNarrative(score, domain.RatioSet{}, nil)

	assert.Contains(t, narrative.Summary, "72.5/100")
	assert.Contains(t, narrative.Summary, "A rating")
	assert.Contains(t, narrative.Summary, "Profitability")

	// One breakdown line per component, defined or not.
	require.Len(t, narrative.Breakdown, 5)
	assert.Contains(t, narrative.Breakdown[0], "Cash Flow: 85.0/100")
	assert.Contains(t, narrative.Breakdown[3], "insufficient data")

	// Only the below-threshold component is a focus area.
	require.Len(t, narrative.FocusAreas, 1)
	assert.Contains(t, narrative.FocusAreas[0], "Profitability")

	assert.Empty(t, narrative.Concerns)
}

func TestBuildNarrative_HealthyFallback(t *testing.T) {
	svc := services.NewNarrativeService(config.DefaultScoringPolicy())
	score := scoreWithComponents(92, domain.RiskLow, domain.RatingAAA, map[domain.ComponentKind]float64{
		domain.ComponentCashFlow:      95,
		domain.ComponentProfitability: 90,
		domain.ComponentLeverage:      92,
		domain.ComponentEfficiency:    88,
		domain.ComponentStability:     94,
	})

	narrative := svc.BuildNarrative(score, domain.RatioSet{}, nil)
	require.Len(t, narrative.FocusAreas, 1)
	assert.Contains(t, narrative.FocusAreas[0], "performing well")
}

func TestBuildNarrative_AnomalyConcerns(t *testing.T) {
	svc := services.NewNarrativeService(config.DefaultScoringPolicy())
	score := scoreWithComponents(55, domain.RiskHigh, domain.RatingBB, map[domain.ComponentKind]float64{
		domain.ComponentCashFlow: 55,
	})
	anomalies := []domain.Anomaly{
		{Type: domain.AnomalyLargeTransaction, Severity: domain.SeverityCritical},
		{Type: domain.AnomalyDuplicateTransaction, Severity: domain.SeverityHigh},
		{Type: domain.AnomalyRoundNumberPattern, Severity: domain.SeverityLow},
	}

	narrative := svc.BuildNarrative(score, domain.RatioSet{}, anomalies)
	require.Len(t, narrative.Concerns, 3)
	assert.Contains(t, narrative.Concerns[0], "1 critical anomaly")
	assert.Contains(t, narrative.Concerns[1], "1 high-severity anomaly")
	assert.Contains(t, narrative.Concerns[2], "3 anomalies in total")
}

func TestBuildRecommendations_ComponentThreshold(t *testing.T) {
	svc := services.NewNarrativeService(config.DefaultScoringPolicy())
	score := scoreWithComponents(60, domain.RiskMedium, domain.RatingBBB, map[domain.ComponentKind]float64{
		domain.ComponentCashFlow:      35, // priority 1
		domain.ComponentProfitability: 50, // priority 2
		domain.ComponentLeverage:      65, // priority 3
		domain.ComponentEfficiency:    80, // above threshold, no recommendation
	})

	recs := svc.BuildRecommendations(score, nil)
	require.Len(t, recs, 3)

	assert.Equal(t, "Improve Liquidity Position", recs[0].Title)
	assert.Equal(t, 1, recs[0].Priority)
	assert.Equal(t, "Improve Profit Margins", recs[1].Title)
	assert.Equal(t, 2, recs[1].Priority)
	assert.Equal(t, "Reduce Debt Burden", recs[2].Title)
	assert.Equal(t, 3, recs[2].Priority)
	assert.NotEmpty(t, recs[0].ImplementationSteps)
}

func TestBuildRecommendations_AnomalyDriven(t *testing.T) {
	svc := services.NewNarrativeService(config.DefaultScoringPolicy())
	score := scoreWithComponents(75, domain.RiskMedium, domain.RatingA, map[domain.ComponentKind]float64{
		domain.ComponentCashFlow: 75,
	})
	anomalies := []domain.Anomaly{
		{Type: domain.AnomalyLargeTransaction, Severity: domain.SeverityCritical},
		{Type: domain.AnomalyDuplicateTransaction, Severity: domain.SeverityHigh},
		// Low severity anomalies do not produce recommendations.
		{Type: domain.AnomalyRoundNumberPattern, Severity: domain.SeverityLow},
		// Repeats of a type collapse into one recommendation.
		{Type: domain.AnomalyLargeTransaction, Severity: domain.SeverityHigh},
	}

	recs := svc.BuildRecommendations(score, anomalies)
	require.Len(t, recs, 2)
	assert.Equal(t, "Review Large Transactions", recs[0].Title)
	assert.Equal(t, 1, recs[0].Priority)
	assert.Equal(t, "Investigate Possible Duplicate Payments", recs[1].Title)
	assert.Equal(t, 2, recs[1].Priority)
}

func TestBuildRecommendations_WorstComponentFirstOnTie(t *testing.T) {
	svc := services.NewNarrativeService(config.DefaultScoringPolicy())
	score := scoreWithComponents(60, domain.RiskMedium, domain.RatingBBB, map[domain.ComponentKind]float64{
		domain.ComponentLeverage:  68,
		domain.ComponentStability: 62,
	})

	recs := svc.BuildRecommendations(score, nil)
	require.Len(t, recs, 2)
	// Both are priority 3; the lower-scoring component leads.
	assert.Equal(t, "Strengthen Debt Service Coverage", recs[0].Title)
	assert.Equal(t, "Reduce Debt Burden", recs[1].Title)
}
