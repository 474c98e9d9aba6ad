package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/finpulse/fin_health_app/internal/core/domain"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/finpulse/fin_health_app/internal/core/services"
	"github.com/finpulse/fin_health_app/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompanyRepository is a mock type for the CompanyRepository interface
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) SaveCompany(ctx context.Context, company domain.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

// MockHealthScoreRepository is a mock type for the HealthScoreRepository interface
type MockHealthScoreRepository struct {
	mock.Mock
}

func (m *MockHealthScoreRepository) SaveHealthScore(ctx context.Context, score domain.HealthScore) error {
	args := m.Called(ctx, score)
	return args.Error(0)
}

func (m *MockHealthScoreRepository) FindLatestByCompany(ctx context.Context, companyID string) (*domain.HealthScore, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HealthScore), args.Error(1)
}

func (m *MockHealthScoreRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]domain.HealthScore, error) {
	args := m.Called(ctx, companyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HealthScore), args.Error(1)
}

// MockAnomalyRepository is a mock type for the AnomalyRepository interface
type MockAnomalyRepository struct {
	mock.Mock
}

func (m *MockAnomalyRepository) SaveAnomalies(ctx context.Context, anomalies []domain.Anomaly) error {
	args := m.Called(ctx, anomalies)
	return args.Error(0)
}

func (m *MockAnomalyRepository) FindAnomalyByID(ctx context.Context, anomalyID string) (*domain.Anomaly, error) {
	args := m.Called(ctx, anomalyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Anomaly), args.Error(1)
}

func (m *MockAnomalyRepository) ListByCompany(ctx context.Context, companyID string, severity *domain.Severity, unresolvedOnly bool, limit, offset int) ([]domain.Anomaly, error) {
	args := m.Called(ctx, companyID, severity, unresolvedOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Anomaly), args.Error(1)
}

func (m *MockAnomalyRepository) MarkResolved(ctx context.Context, anomalyID, notes, resolvedBy string, resolvedAt time.Time) error {
	args := m.Called(ctx, anomalyID, notes, resolvedBy, resolvedAt)
	return args.Error(0)
}

// newScoringService wires the orchestrator over mock repositories and the real
// component services.
func newScoringService(companyRepo *MockCompanyRepository, scoreRepo *MockHealthScoreRepository, anomalyRepo *MockAnomalyRepository) portssvc.ScoringSvcFacade {
	policy := config.DefaultScoringPolicy()
	return services.NewScoringService(
		companyRepo,
		scoreRepo,
		anomalyRepo,
		services.NewNormalizerService(),
		services.NewRatioService(),
		services.NewAnomalyService(policy),
		services.NewScorerService(policy),
		services.NewNarrativeService(policy),
	)
}

// fullAnalysisRequest carries enough input to score: liquidity and debt-service
// figures on the sheet, plus a duplicate transaction pair the detector flags.
func fullAnalysisRequest() portssvc.AnalysisRequest {
	return portssvc.AnalysisRequest{
		CompanyID:      "comp-1",
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		OpeningBalance: decimal.NewFromInt(10000),
		Transactions: []domain.Transaction{
			{TransactionID: "t1", CompanyID: "comp-1", Date: day(1), Amount: decimal.NewFromInt(5000), Description: "customer sales receipt"},
			{TransactionID: "t2", CompanyID: "comp-1", Date: day(2), Amount: decimal.NewFromInt(-2000), Description: "office supplies", Counterparty: stringPtr("Acme Stationers")},
			{TransactionID: "t3", CompanyID: "comp-1", Date: day(3), Amount: decimal.NewFromInt(-2000), Description: "office supplies", Counterparty: stringPtr("Acme Stationers")},
		},
		BalanceSheet: domain.BalanceSheetSnapshot{
			CurrentAssets:            decimalPtr(decimal.NewFromInt(145000)),
			CurrentLiabilities:       decimalPtr(decimal.NewFromInt(100000)),
			AnnualNetOperatingIncome: decimalPtr(decimal.NewFromInt(2500000)),
			AnnualDebtService:        decimalPtr(decimal.NewFromFloat(1351351.35)),
		},
		RequestedBy: "analyst-1",
		Timestamp:   time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestAnalyzeCompanyPeriod_FullRun(t *testing.T) {
	companyRepo := new(MockCompanyRepository)
	scoreRepo := new(MockHealthScoreRepository)
	anomalyRepo := new(MockAnomalyRepository)
	svc := newScoringService(companyRepo, scoreRepo, anomalyRepo)
	req := fullAnalysisRequest()

	companyRepo.On("FindCompanyByID", mock.Anything, "comp-1").Return(&domain.Company{CompanyID: "comp-1"}, nil)
	scoreRepo.On("FindLatestByCompany", mock.Anything, "comp-1").Return(nil, apperrors.ErrNotFound)

	var persistedScore domain.HealthScore
	scoreRepo.On("SaveHealthScore", mock.Anything, mock.AnythingOfType("domain.HealthScore")).
		Run(func(args mock.Arguments) { persistedScore = args.Get(1).(domain.HealthScore) }).
		Return(nil)

	var persistedAnomalies []domain.Anomaly
	anomalyRepo.On("SaveAnomalies", mock.Anything, mock.AnythingOfType("[]domain.Anomaly")).
		Run(func(args mock.Arguments) { persistedAnomalies = args.Get(1).([]domain.Anomaly) }).
		Return(nil)

	result, err := svc.AnalyzeCompanyPeriod(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.HealthScore.ScoreID)
	assert.Equal(t, "comp-1", result.HealthScore.CompanyID)
	assert.Equal(t, req.Timestamp, result.HealthScore.CreatedAt)
	assert.Equal(t, "analyst-1", result.HealthScore.CreatedBy)
	assert.Nil(t, result.HealthScore.PreviousScore)

	// The duplicate supplier payments are flagged with an assigned identity.
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, domain.AnomalyDuplicateTransaction, result.Anomalies[0].Type)
	assert.NotEmpty(t, result.Anomalies[0].AnomalyID)
	assert.Equal(t, req.Timestamp, result.Anomalies[0].CreatedAt)

	assert.NotEmpty(t, result.Narrative.Summary)
	assert.Equal(t, result.HealthScore, persistedScore, "persisted score must match the returned one")
	assert.Equal(t, result.Anomalies, persistedAnomalies)

	companyRepo.AssertExpectations(t)
	scoreRepo.AssertExpectations(t)
	anomalyRepo.AssertExpectations(t)
}

func TestAnalyzeCompanyPeriod_CompanyNotFound(t *testing.T) {
	companyRepo := new(MockCompanyRepository)
	scoreRepo := new(MockHealthScoreRepository)
	anomalyRepo := new(MockAnomalyRepository)
	svc := newScoringService(companyRepo, scoreRepo, anomalyRepo)

	companyRepo.On("FindCompanyByID", mock.Anything, "comp-1").Return(nil, apperrors.ErrNotFound)

	result, err := svc.AnalyzeCompanyPeriod(context.Background(), fullAnalysisRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, result)

	scoreRepo.AssertNotCalled(t, "SaveHealthScore", mock.Anything, mock.Anything)
	anomalyRepo.AssertNotCalled(t, "SaveAnomalies", mock.Anything, mock.Anything)
}

func TestAnalyzeCompanyPeriod_InvalidPeriod(t *testing.T) {
	companyRepo := new(MockCompanyRepository)
	scoreRepo := new(MockHealthScoreRepository)
	anomalyRepo := new(MockAnomalyRepository)
	svc := newScoringService(companyRepo, scoreRepo, anomalyRepo)

	companyRepo.On("FindCompanyByID", mock.Anything, "comp-1").Return(&domain.Company{CompanyID: "comp-1"}, nil)

	req := fullAnalysisRequest()
	req.PeriodEnd = req.PeriodStart

	_, err := svc.AnalyzeCompanyPeriod(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAnalyzeCompanyPeriod_EmptyBalanceSheet(t *testing.T) {
	companyRepo := new(MockCompanyRepository)
	scoreRepo := new(MockHealthScoreRepository)
	anomalyRepo := new(MockAnomalyRepository)
	svc := newScoringService(companyRepo, scoreRepo, anomalyRepo)

	companyRepo.On("FindCompanyByID", mock.Anything, "comp-1").Return(&domain.Company{CompanyID: "comp-1"}, nil)

	req := fullAnalysisRequest()
	req.BalanceSheet = domain.BalanceSheetSnapshot{}

	result, err := svc.AnalyzeCompanyPeriod(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMissingInput)
	assert.Nil(t, result)

	scoreRepo.AssertNotCalled(t, "FindLatestByCompany", mock.Anything, mock.Anything)
	scoreRepo.AssertNotCalled(t, "SaveHealthScore", mock.Anything, mock.Anything)
	anomalyRepo.AssertNotCalled(t, "SaveAnomalies", mock.Anything, mock.Anything)
}

func TestAnalyzeCompanyPeriod_CarriesPriorScore(t *testing.T) {
	companyRepo := new(MockCompanyRepository)
	scoreRepo := new(MockHealthScoreRepository)
	anomalyRepo := new(MockAnomalyRepository)
	svc := newScoringService(companyRepo, scoreRepo, anomalyRepo)

	prior := &domain.HealthScore{CompanyID: "comp-1", OverallScore: decimal.NewFromFloat(54.5)}
	companyRepo.On("FindCompanyByID", mock.Anything, "comp-1").Return(&domain.Company{CompanyID: "comp-1"}, nil)
	scoreRepo.On("FindLatestByCompany", mock.Anything, "comp-1").Return(prior, nil)
	scoreRepo.On("SaveHealthScore", mock.Anything, mock.Anything).Return(nil)
	anomalyRepo.On("SaveAnomalies", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.AnalyzeCompanyPeriod(context.Background(), fullAnalysisRequest())
	require.NoError(t, err)
	require.NotNil(t, result.HealthScore.PreviousScore)
	assert.True(t, result.HealthScore.PreviousScore.Equal(decimal.NewFromFloat(54.5)))
	require.NotNil(t, result.HealthScore.ScoreChange)
	assert.True(t, result.HealthScore.ScoreChange.Equal(result.HealthScore.OverallScore.Sub(decimal.NewFromFloat(54.5))))
}

func TestResolveAnomaly(t *testing.T) {
	companyRepo := new(MockCompanyRepository)
	scoreRepo := new(MockHealthScoreRepository)
	anomalyRepo := new(MockAnomalyRepository)
	svc := newScoringService(companyRepo, scoreRepo, anomalyRepo)

	stored := &domain.Anomaly{AnomalyID: "anom-1", CompanyID: "comp-1", Type: domain.AnomalyLargeTransaction, Severity: domain.SeverityHigh}
	anomalyRepo.On("FindAnomalyByID", mock.Anything, "anom-1").Return(stored, nil)
	anomalyRepo.On("MarkResolved", mock.Anything, "anom-1", "verified with vendor", "analyst-1", mock.AnythingOfType("time.Time")).Return(nil)

	resolved, err := svc.ResolveAnomaly(context.Background(), "anom-1", "verified with vendor", "analyst-1")
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolutionNotes)
	assert.Equal(t, "verified with vendor", *resolved.ResolutionNotes)
	assert.Equal(t, "analyst-1", resolved.LastUpdatedBy)
	anomalyRepo.AssertExpectations(t)
}

func TestResolveAnomaly_AlreadyResolved(t *testing.T) {
	companyRepo := new(MockCompanyRepository)
	scoreRepo := new(MockHealthScoreRepository)
	anomalyRepo := new(MockAnomalyRepository)
	svc := newScoringService(companyRepo, scoreRepo, anomalyRepo)

	stored := &domain.Anomaly{AnomalyID: "anom-1", IsResolved: true}
	anomalyRepo.On("FindAnomalyByID", mock.Anything, "anom-1").Return(stored, nil)

	_, err := svc.ResolveAnomaly(context.Background(), "anom-1", "notes", "analyst-1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	anomalyRepo.AssertNotCalled(t, "MarkResolved", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveAnomaly_NotFound(t *testing.T) {
	companyRepo := new(MockCompanyRepository)
	scoreRepo := new(MockHealthScoreRepository)
	anomalyRepo := new(MockAnomalyRepository)
	svc := newScoringService(companyRepo, scoreRepo, anomalyRepo)

	anomalyRepo.On("FindAnomalyByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.ResolveAnomaly(context.Background(), "missing", "notes", "analyst-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListAnomalies_PassesFilter(t *testing.T) {
	companyRepo := new(MockCompanyRepository)
	scoreRepo := new(MockHealthScoreRepository)
	anomalyRepo := new(MockAnomalyRepository)
	svc := newScoringService(companyRepo, scoreRepo, anomalyRepo)

	severity := domain.SeverityHigh
	expected := []domain.Anomaly{{AnomalyID: "anom-1", Severity: domain.SeverityHigh}}
	anomalyRepo.On("ListByCompany", mock.Anything, "comp-1", &severity, true, 20, 0).Return(expected, nil)

	got, err := svc.ListAnomalies(context.Background(), "comp-1", portssvc.AnomalyFilter{
		Severity:       &severity,
		UnresolvedOnly: true,
		Limit:          20,
		Offset:         0,
	})
	require.NoError(t, err)
	assert.Equal(t, expected, got)
	anomalyRepo.AssertExpectations(t)
}
