package domain

// Company represents one business whose financial health is being assessed.
type Company struct {
	CompanyID string `json:"companyID"`
	Name      string `json:"name"`
	Industry  string `json:"industry,omitempty"`
	AuditFields
}
