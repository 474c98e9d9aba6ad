package dto

import (
	"time"

	"github.com/finpulse/fin_health_app/internal/core/domain"
)

// CreateCompanyRequest defines the data needed to register a company.
type CreateCompanyRequest struct {
	Name     string `json:"name" binding:"required"`
	Industry string `json:"industry"` // Optional
}

// CompanyResponse defines the data returned for a company.
type CompanyResponse struct {
	CompanyID     string    `json:"companyID"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// ToCompany converts a create request to a domain.Company.
func (r CreateCompanyRequest) ToCompany() domain.Company {
	return domain.Company{
		Name:     r.Name,
		Industry: r.Industry,
	}
}

// ToCompanyResponse converts a domain.Company to CompanyResponse DTO.
func ToCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		CompanyID:     c.CompanyID,
		Name:          c.Name,
		Industry:      c.Industry,
		CreatedAt:     c.CreatedAt,
		CreatedBy:     c.CreatedBy,
		LastUpdatedAt: c.LastUpdatedAt,
		LastUpdatedBy: c.LastUpdatedBy,
	}
}
