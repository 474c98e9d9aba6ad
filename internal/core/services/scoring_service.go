package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/finpulse/fin_health_app/internal/core/domain"
	portsrepo "github.com/finpulse/fin_health_app/internal/core/ports/repositories"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/google/uuid"
)

// scoringService orchestrates one scoring run end to end and fronts the
// persisted results. All non-determinism (IDs, audit stamps) lives here; the
// component services below it are pure.
type scoringService struct {
	BaseService
	companyRepo portsrepo.CompanyRepository
	scoreRepo   portsrepo.HealthScoreRepository
	anomalyRepo portsrepo.AnomalyRepository
	normalizer  portssvc.TransactionNormalizerSvc
	ratios      portssvc.RatioCalculatorSvc
	detector    portssvc.AnomalyDetectorSvc
	scorer      portssvc.CompositeScorerSvc
	narrative   portssvc.NarrativeSvc
}

// NewScoringService creates the scoring facade over its component services.
func NewScoringService(
	companyRepo portsrepo.CompanyRepository,
	scoreRepo portsrepo.HealthScoreRepository,
	anomalyRepo portsrepo.AnomalyRepository,
	normalizer portssvc.TransactionNormalizerSvc,
	ratios portssvc.RatioCalculatorSvc,
	detector portssvc.AnomalyDetectorSvc,
	scorer portssvc.CompositeScorerSvc,
	narrative portssvc.NarrativeSvc,
) portssvc.ScoringSvcFacade {
	return &scoringService{
		companyRepo: companyRepo,
		scoreRepo:   scoreRepo,
		anomalyRepo: anomalyRepo,
		normalizer:  normalizer,
		ratios:      ratios,
		detector:    detector,
		scorer:      scorer,
		narrative:   narrative,
	}
}

var _ portssvc.ScoringSvcFacade = (*scoringService)(nil)

// AnalyzeCompanyPeriod runs the full pipeline for one (company, period) input:
// normalize, aggregate, detect anomalies and compute ratios concurrently, score,
// render narrative and recommendations, then persist the score and anomalies.
func (s *scoringService) AnalyzeCompanyPeriod(ctx context.Context, req portssvc.AnalysisRequest) (*portssvc.AnalysisResult, error) {
	logger := s.GetLogger(ctx)

	if _, err := s.companyRepo.FindCompanyByID(ctx, req.CompanyID); err != nil {
		s.LogError(ctx, err, "failed to load company for analysis", "companyID", req.CompanyID)
		return nil, fmt.Errorf("loading company %s: %w", req.CompanyID, err)
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		return nil, fmt.Errorf("period end must be after period start: %w", apperrors.ErrValidation)
	}

	// Every downstream component reads categories, so normalization completes
	// before anything else starts.
	normalized := s.normalizer.Normalize(ctx, req.Transactions)

	aggregate, err := domain.NewPeriodAggregate(req.CompanyID, req.PeriodStart, req.PeriodEnd, req.OpeningBalance, normalized, req.BalanceSheet)
	if err != nil {
		s.LogError(ctx, err, "failed to build period aggregate", "companyID", req.CompanyID)
		return nil, err
	}

	// Anomaly detection only needs the normalized transactions, so it runs
	// alongside the ratio calculation and is joined before scoring.
	anomalyCh := make(chan []domain.Anomaly, 1)
	go func() {
		anomalyCh <- s.detector.DetectAnomalies(ctx, req.CompanyID, normalized, req.OpeningBalance)
	}()

	ratios, err := s.ratios.CalculateRatios(ctx, aggregate)
	anomalies := <-anomalyCh
	if err != nil {
		s.LogError(ctx, err, "failed to calculate ratios", "companyID", req.CompanyID)
		return nil, err
	}

	prior, err := s.scoreRepo.FindLatestByCompany(ctx, req.CompanyID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "failed to load prior health score", "companyID", req.CompanyID)
			return nil, fmt.Errorf("loading prior score for %s: %w", req.CompanyID, err)
		}
		prior = nil
	}

	score, err := s.scorer.Score(ctx, req.CompanyID, ratios, anomalies, prior, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		s.LogError(ctx, err, "failed to compute health score", "companyID", req.CompanyID)
		return nil, err
	}

	score.ScoreID = uuid.NewString()
	score.AuditFields = newAuditFields(req.RequestedBy, req.Timestamp)
	for i := range anomalies {
		anomalies[i].AnomalyID = uuid.NewString()
		anomalies[i].AuditFields = newAuditFields(req.RequestedBy, req.Timestamp)
	}

	recommendations := s.narrative.BuildRecommendations(score, anomalies)
	assessment := s.narrative.BuildNarrative(score, ratios, anomalies)

	if err := s.scoreRepo.SaveHealthScore(ctx, score); err != nil {
		s.LogError(ctx, err, "failed to persist health score", "companyID", req.CompanyID, "scoreID", score.ScoreID)
		return nil, fmt.Errorf("persisting health score: %w", err)
	}
	if err := s.anomalyRepo.SaveAnomalies(ctx, anomalies); err != nil {
		s.LogError(ctx, err, "failed to persist anomalies", "companyID", req.CompanyID)
		return nil, fmt.Errorf("persisting anomalies: %w", err)
	}

	logger.Info("scoring run completed",
		"companyID", req.CompanyID,
		"scoreID", score.ScoreID,
		"overallScore", score.OverallScore.String(),
		"riskLevel", score.RiskLevel,
		"anomalyCount", len(anomalies),
	)

	return &portssvc.AnalysisResult{
		HealthScore:     score,
		Ratios:          ratios,
		Aggregate:       aggregate,
		Anomalies:       anomalies,
		Recommendations: recommendations,
		Narrative:       assessment,
	}, nil
}

// GetLatestHealthScore returns the most recent persisted score for the company.
func (s *scoringService) GetLatestHealthScore(ctx context.Context, companyID string) (*domain.HealthScore, error) {
	score, err := s.scoreRepo.FindLatestByCompany(ctx, companyID)
	if err != nil {
		s.LogError(ctx, err, "failed to load latest health score", "companyID", companyID)
		return nil, fmt.Errorf("loading latest score for %s: %w", companyID, err)
	}
	return score, nil
}

// ListHealthScores returns the company's score history, newest first.
func (s *scoringService) ListHealthScores(ctx context.Context, companyID string, limit, offset int) ([]domain.HealthScore, error) {
	scores, err := s.scoreRepo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "failed to list health scores", "companyID", companyID)
		return nil, fmt.Errorf("listing scores for %s: %w", companyID, err)
	}
	return scores, nil
}

// ListAnomalies returns the company's anomalies matching the filter.
func (s *scoringService) ListAnomalies(ctx context.Context, companyID string, filter portssvc.AnomalyFilter) ([]domain.Anomaly, error) {
	anomalies, err := s.anomalyRepo.ListByCompany(ctx, companyID, filter.Severity, filter.UnresolvedOnly, filter.Limit, filter.Offset)
	if err != nil {
		s.LogError(ctx, err, "failed to list anomalies", "companyID", companyID)
		return nil, fmt.Errorf("listing anomalies for %s: %w", companyID, err)
	}
	return anomalies, nil
}

// ResolveAnomaly records the human resolution of one anomaly. Resolving an
// already-resolved anomaly is rejected.
func (s *scoringService) ResolveAnomaly(ctx context.Context, anomalyID, notes, resolvedBy string) (*domain.Anomaly, error) {
	anomaly, err := s.anomalyRepo.FindAnomalyByID(ctx, anomalyID)
	if err != nil {
		s.LogError(ctx, err, "failed to load anomaly for resolution", "anomalyID", anomalyID)
		return nil, fmt.Errorf("loading anomaly %s: %w", anomalyID, err)
	}
	if anomaly.IsResolved {
		return nil, fmt.Errorf("anomaly %s is already resolved: %w", anomalyID, apperrors.ErrValidation)
	}

	resolvedAt := time.Now().UTC()
	if err := s.anomalyRepo.MarkResolved(ctx, anomalyID, notes, resolvedBy, resolvedAt); err != nil {
		s.LogError(ctx, err, "failed to mark anomaly resolved", "anomalyID", anomalyID)
		return nil, fmt.Errorf("resolving anomaly %s: %w", anomalyID, err)
	}

	anomaly.IsResolved = true
	anomaly.ResolutionNotes = &notes
	anomaly.LastUpdatedAt = resolvedAt
	anomaly.LastUpdatedBy = resolvedBy
	s.LogInfo(ctx, "anomaly resolved", "anomalyID", anomalyID, "resolvedBy", resolvedBy)
	return anomaly, nil
}

// newAuditFields stamps creation and update audit data from the run's
// caller-supplied timestamp.
func newAuditFields(actor string, at time.Time) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     at,
		CreatedBy:     actor,
		LastUpdatedAt: at,
		LastUpdatedBy: actor,
	}
}
