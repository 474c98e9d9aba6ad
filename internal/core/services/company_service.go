package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/finpulse/fin_health_app/internal/core/domain"
	portsrepo "github.com/finpulse/fin_health_app/internal/core/ports/repositories"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/finpulse/fin_health_app/internal/middleware"
	"github.com/google/uuid"
)

type companyService struct {
	BaseService
	companyRepo portsrepo.CompanyRepository
}

// NewCompanyService creates a new company service.
func NewCompanyService(companyRepo portsrepo.CompanyRepository) portssvc.CompanySvcFacade {
	return &companyService{companyRepo: companyRepo}
}

var _ portssvc.CompanySvcFacade = (*companyService)(nil)

// CreateCompany registers a company so scoring runs can be attributed to it.
func (s *companyService) CreateCompany(ctx context.Context, company domain.Company) (*domain.Company, error) {
	if strings.TrimSpace(company.Name) == "" {
		return nil, fmt.Errorf("company name is required: %w", apperrors.ErrValidation)
	}
	if company.CompanyID == "" {
		company.CompanyID = uuid.NewString()
	}

	now := time.Now().UTC()
	actor, _ := middleware.GetCallerIDFromCtx(ctx)
	company.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actor,
		LastUpdatedAt: now,
		LastUpdatedBy: actor,
	}

	if err := s.companyRepo.SaveCompany(ctx, company); err != nil {
		s.LogError(ctx, err, "failed to save company", "companyID", company.CompanyID)
		return nil, fmt.Errorf("saving company %s: %w", company.CompanyID, err)
	}

	s.LogInfo(ctx, "company created", "companyID", company.CompanyID, "name", company.Name)
	return &company, nil
}

// GetCompanyByID fetches one company.
func (s *companyService) GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		s.LogError(ctx, err, "failed to load company", "companyID", companyID)
		return nil, fmt.Errorf("loading company %s: %w", companyID, err)
	}
	return company, nil
}
