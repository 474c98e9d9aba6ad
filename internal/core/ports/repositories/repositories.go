package repositories

import (
	"context"
	"time"

	"github.com/finpulse/fin_health_app/internal/core/domain"
)

// CompanyRepository persists companies.
type CompanyRepository interface {
	SaveCompany(ctx context.Context, company domain.Company) error
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)
}

// HealthScoreRepository persists immutable scoring-run results. Scores are never
// updated; each run appends a new record.
type HealthScoreRepository interface {
	SaveHealthScore(ctx context.Context, score domain.HealthScore) error
	FindLatestByCompany(ctx context.Context, companyID string) (*domain.HealthScore, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]domain.HealthScore, error)
}

// AnomalyRepository persists detected anomalies and records their downstream
// resolution.
type AnomalyRepository interface {
	SaveAnomalies(ctx context.Context, anomalies []domain.Anomaly) error
	FindAnomalyByID(ctx context.Context, anomalyID string) (*domain.Anomaly, error)
	ListByCompany(ctx context.Context, companyID string, severity *domain.Severity, unresolvedOnly bool, limit, offset int) ([]domain.Anomaly, error)
	MarkResolved(ctx context.Context, anomalyID, notes, resolvedBy string, resolvedAt time.Time) error
}

// RepositoryProvider bundles all repositories for service container wiring.
type RepositoryProvider struct {
	Company     CompanyRepository
	HealthScore HealthScoreRepository
	Anomaly     AnomalyRepository
}
