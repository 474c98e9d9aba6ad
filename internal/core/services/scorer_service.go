package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/finpulse/fin_health_app/internal/core/domain"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/finpulse/fin_health_app/internal/platform/config"
	"github.com/shopspring/decimal"
)

// scorerService implements the CompositeScorerSvc interface. All banding tables
// and weights come from the scoring policy, so policy changes never require
// recompilation and a stored score stays reproducible against its policy version.
type scorerService struct {
	BaseService
	policy config.ScoringPolicy
}

// NewScorerService creates a new composite scorer governed by the given policy.
func NewScorerService(policy config.ScoringPolicy) portssvc.CompositeScorerSvc {
	return &scorerService{policy: policy}
}

var _ portssvc.CompositeScorerSvc = (*scorerService)(nil)

// scoreAgainstBenchmark maps a ratio value onto 0-100 by linear interpolation
// between the poor and excellent bounds, clamped at both ends. For
// lower-is-better ratios the poor bound is numerically greater, which inverts
// the slope. Undefined ratios pass through undefined.
func scoreAgainstBenchmark(value domain.Metric, bench config.RatioBenchmark) domain.Metric {
	if !value.IsDefined() {
		return value
	}
	poor := decimal.NewFromFloat(bench.Poor)
	excellent := decimal.NewFromFloat(bench.Excellent)
	span := excellent.Sub(poor)

	score := value.Value().Sub(poor).Div(span).Mul(hundred)
	if score.IsNegative() {
		score = decimal.Zero
	} else if score.GreaterThan(hundred) {
		score = hundred
	}
	return domain.DefinedMetric(score)
}

// componentScore averages the defined ratio scores contributing to one
// component. An undefined ratio is excluded from the average rather than
// treated as zero; when every contributing ratio is undefined the component
// itself is undefined.
func (s *scorerService) componentScore(kind domain.ComponentKind, ratios domain.RatioSet) domain.ComponentScore {
	weight := decimal.NewFromFloat(s.policy.Weights[string(kind)])

	sum := decimal.Zero
	defined := 0
	for _, ratioName := range s.policy.Components[string(kind)] {
		bench, ok := s.policy.Benchmarks[ratioName]
		if !ok {
			continue
		}
		scored := scoreAgainstBenchmark(ratios.ByName(ratioName), bench)
		if !scored.IsDefined() {
			continue
		}
		sum = sum.Add(scored.Value())
		defined++
	}

	if defined == 0 {
		return domain.ComponentScore{
			Component: kind,
			Score:     domain.UndefinedMetric("all contributing ratios undefined"),
			Weight:    weight,
		}
	}
	return domain.ComponentScore{
		Component: kind,
		Score:     domain.DefinedMetric(sum.Div(decimal.NewFromInt(int64(defined)))),
		Weight:    weight,
	}
}

// Score combines the ratio set and the period's anomalies into one immutable
// health score. Undefined components are excluded from the weighted sum with
// the remaining weights renormalized to a full unit, so a company with partial
// data is scored on what is known instead of being reported as zero-health.
// Given identical inputs the result is identical: nothing here reads a clock or
// randomness.
func (s *scorerService) Score(ctx context.Context, companyID string, ratios domain.RatioSet, anomalies []domain.Anomaly, prior *domain.HealthScore, periodStart, periodEnd time.Time) (domain.HealthScore, error) {
	components := make([]domain.ComponentScore, 0, len(domain.ComponentOrder))
	weightedSum := decimal.Zero
	definedWeight := decimal.Zero
	for _, kind := range domain.ComponentOrder {
		component := s.componentScore(kind, ratios)
		components = append(components, component)
		if component.Score.IsDefined() {
			weightedSum = weightedSum.Add(component.Score.Value().Mul(component.Weight))
			definedWeight = definedWeight.Add(component.Weight)
		}
	}

	if definedWeight.IsZero() {
		err := fmt.Errorf("no component score could be computed: %w", apperrors.ErrMissingInput)
		s.LogError(ctx, err, "Refusing to emit a zero-health score for an all-undefined company",
			slog.String("company_id", companyID))
		return domain.HealthScore{}, err
	}

	overall := weightedSum.Div(definedWeight).Round(1)

	score := domain.HealthScore{
		CompanyID:     companyID,
		PolicyVersion: s.policy.Version,
		OverallScore:  overall,
		Components:    components,
		RiskLevel:     s.riskLevel(overall, anomalies),
		CreditRating:  s.creditRating(overall),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
	}

	if prior != nil {
		previous := prior.OverallScore
		change := overall.Sub(previous)
		score.PreviousScore = &previous
		score.ScoreChange = &change
	}

	s.LogInfo(ctx, "Health score computed",
		slog.String("company_id", companyID),
		slog.String("overall_score", overall.String()),
		slog.String("risk_level", string(score.RiskLevel)),
		slog.String("credit_rating", string(score.CreditRating)))
	return score, nil
}

// riskLevel bands the overall score, then escalates one band for each anomaly
// pressure condition: any critical anomaly, and three or more open anomalies.
// Each escalation moves exactly one band; the level saturates at critical.
func (s *scorerService) riskLevel(overall decimal.Decimal, anomalies []domain.Anomaly) domain.RiskLevel {
	level := domain.RiskCritical
	switch {
	case overall.GreaterThanOrEqual(decimal.NewFromFloat(s.policy.RiskBands.Low)):
		level = domain.RiskLow
	case overall.GreaterThanOrEqual(decimal.NewFromFloat(s.policy.RiskBands.Medium)):
		level = domain.RiskMedium
	case overall.GreaterThanOrEqual(decimal.NewFromFloat(s.policy.RiskBands.High)):
		level = domain.RiskHigh
	}

	hasCritical := false
	for _, anomaly := range anomalies {
		if anomaly.Severity == domain.SeverityCritical {
			hasCritical = true
			break
		}
	}
	if hasCritical {
		level = level.Escalate()
	}
	if len(anomalies) >= 3 {
		level = level.Escalate()
	}
	return level
}

// creditRating maps the overall score onto the letter scale. Band bounds are
// strict: a score sitting exactly on a boundary takes the safer, lower rating.
func (s *scorerService) creditRating(overall decimal.Decimal) domain.CreditRating {
	for _, band := range s.policy.CreditBands {
		if overall.GreaterThan(decimal.NewFromFloat(band.Above)) {
			return domain.CreditRating(band.Rating)
		}
	}
	return domain.CreditRating(s.policy.CreditBands[len(s.policy.CreditBands)-1].Rating)
}
