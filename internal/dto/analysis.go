package dto

import (
	"time"

	"github.com/finpulse/fin_health_app/internal/core/domain"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// TransactionInput is one raw ledger entry submitted for analysis. Category is
// optional; entries without one are classified from the description.
type TransactionInput struct {
	TransactionID string          `json:"transactionID" binding:"required"`
	DocumentID    string          `json:"documentID"`
	Date          time.Time       `json:"date" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description"`
	Counterparty  *string         `json:"counterparty"`
	Category      string          `json:"category"`
}

// BalanceSheetInput mirrors domain.BalanceSheetSnapshot; every field is
// optional and nil means "unknown".
type BalanceSheetInput struct {
	CurrentAssets            *decimal.Decimal `json:"currentAssets"`
	CurrentLiabilities       *decimal.Decimal `json:"currentLiabilities"`
	Inventory                *decimal.Decimal `json:"inventory"`
	CashAndEquivalents       *decimal.Decimal `json:"cashAndEquivalents"`
	TotalDebt                *decimal.Decimal `json:"totalDebt"`
	Equity                   *decimal.Decimal `json:"equity"`
	TotalAssets              *decimal.Decimal `json:"totalAssets"`
	EBIT                     *decimal.Decimal `json:"ebit"`
	InterestExpense          *decimal.Decimal `json:"interestExpense"`
	AnnualDebtService        *decimal.Decimal `json:"annualDebtService"`
	AnnualNetOperatingIncome *decimal.Decimal `json:"annualNetOperatingIncome"`
	Revenue                  *decimal.Decimal `json:"revenue"`
	GrossProfit              *decimal.Decimal `json:"grossProfit"`
	NetIncome                *decimal.Decimal `json:"netIncome"`
	AverageReceivables       *decimal.Decimal `json:"averageReceivables"`
	AveragePayables          *decimal.Decimal `json:"averagePayables"`
	AverageInventory         *decimal.Decimal `json:"averageInventory"`
}

// AnalyzeCompanyRequest is the full payload of one scoring run.
type AnalyzeCompanyRequest struct {
	PeriodStart    time.Time          `json:"periodStart" binding:"required"`
	PeriodEnd      time.Time          `json:"periodEnd" binding:"required"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
	Transactions   []TransactionInput `json:"transactions" binding:"required,dive"`
	BalanceSheet   BalanceSheetInput  `json:"balanceSheet"`
}

// ToAnalysisRequest converts the payload into the service-layer request. The
// timestamp is stamped here so the whole run shares one audit instant.
func (r AnalyzeCompanyRequest) ToAnalysisRequest(companyID, requestedBy string, now time.Time) portssvc.AnalysisRequest {
	transactions := make([]domain.Transaction, len(r.Transactions))
	for i, txn := range r.Transactions {
		transactions[i] = domain.Transaction{
			TransactionID: txn.TransactionID,
			CompanyID:     companyID,
			DocumentID:    txn.DocumentID,
			Date:          txn.Date,
			Amount:        txn.Amount,
			Description:   txn.Description,
			Counterparty:  txn.Counterparty,
			Category:      txn.Category,
		}
	}
	return portssvc.AnalysisRequest{
		CompanyID:      companyID,
		PeriodStart:    r.PeriodStart,
		PeriodEnd:      r.PeriodEnd,
		OpeningBalance: r.OpeningBalance,
		Transactions:   transactions,
		BalanceSheet: domain.BalanceSheetSnapshot{
			CurrentAssets:            r.BalanceSheet.CurrentAssets,
			CurrentLiabilities:       r.BalanceSheet.CurrentLiabilities,
			Inventory:                r.BalanceSheet.Inventory,
			CashAndEquivalents:       r.BalanceSheet.CashAndEquivalents,
			TotalDebt:                r.BalanceSheet.TotalDebt,
			Equity:                   r.BalanceSheet.Equity,
			TotalAssets:              r.BalanceSheet.TotalAssets,
			EBIT:                     r.BalanceSheet.EBIT,
			InterestExpense:          r.BalanceSheet.InterestExpense,
			AnnualDebtService:        r.BalanceSheet.AnnualDebtService,
			AnnualNetOperatingIncome: r.BalanceSheet.AnnualNetOperatingIncome,
			Revenue:                  r.BalanceSheet.Revenue,
			GrossProfit:              r.BalanceSheet.GrossProfit,
			NetIncome:                r.BalanceSheet.NetIncome,
			AverageReceivables:       r.BalanceSheet.AverageReceivables,
			AveragePayables:          r.BalanceSheet.AveragePayables,
			AverageInventory:         r.BalanceSheet.AverageInventory,
		},
		RequestedBy: requestedBy,
		Timestamp:   now,
	}
}

// ComponentScoreResponse is one sub-score of the overall health score. Score is
// nil when every contributing ratio was undefined; Reason then says why.
type ComponentScoreResponse struct {
	Component string           `json:"component"`
	Score     *decimal.Decimal `json:"score"`
	Reason    string           `json:"reason,omitempty"`
	Weight    decimal.Decimal  `json:"weight"`
}

// HealthScoreResponse defines the data returned for a persisted health score.
type HealthScoreResponse struct {
	ScoreID       string                   `json:"scoreID"`
	CompanyID     string                   `json:"companyID"`
	PolicyVersion string                   `json:"policyVersion"`
	OverallScore  decimal.Decimal          `json:"overallScore"`
	Components    []ComponentScoreResponse `json:"components"`
	RiskLevel     string                   `json:"riskLevel"`
	CreditRating  string                   `json:"creditRating"`
	PreviousScore *decimal.Decimal         `json:"previousScore,omitempty"`
	ScoreChange   *decimal.Decimal         `json:"scoreChange,omitempty"`
	PeriodStart   time.Time                `json:"periodStart"`
	PeriodEnd     time.Time                `json:"periodEnd"`
	CreatedAt     time.Time                `json:"createdAt"`
}

// ToHealthScoreResponse converts a domain.HealthScore to HealthScoreResponse DTO.
func ToHealthScoreResponse(score *domain.HealthScore) HealthScoreResponse {
	components := make([]ComponentScoreResponse, len(score.Components))
	for i, c := range score.Components {
		resp := ComponentScoreResponse{
			Component: string(c.Component),
			Weight:    c.Weight,
		}
		if c.Score.IsDefined() {
			value := c.Score.Value()
			resp.Score = &value
		} else {
			resp.Reason = c.Score.Reason()
		}
		components[i] = resp
	}
	return HealthScoreResponse{
		ScoreID:       score.ScoreID,
		CompanyID:     score.CompanyID,
		PolicyVersion: score.PolicyVersion,
		OverallScore:  score.OverallScore,
		Components:    components,
		RiskLevel:     string(score.RiskLevel),
		CreditRating:  string(score.CreditRating),
		PreviousScore: score.PreviousScore,
		ScoreChange:   score.ScoreChange,
		PeriodStart:   score.PeriodStart,
		PeriodEnd:     score.PeriodEnd,
		CreatedAt:     score.CreatedAt,
	}
}

// ToListHealthScoreResponse converts a slice of domain.HealthScore.
func ToListHealthScoreResponse(scores []domain.HealthScore) []HealthScoreResponse {
	res := make([]HealthScoreResponse, len(scores))
	for i := range scores {
		res[i] = ToHealthScoreResponse(&scores[i])
	}
	return res
}

// AnomalyResponse defines the data returned for a detected anomaly.
type AnomalyResponse struct {
	AnomalyID       string                 `json:"anomalyID"`
	CompanyID       string                 `json:"companyID"`
	TransactionID   *string                `json:"transactionID,omitempty"`
	Type            string                 `json:"type"`
	Severity        string                 `json:"severity"`
	Description     string                 `json:"description"`
	Evidence        domain.AnomalyEvidence `json:"evidence"`
	IsResolved      bool                   `json:"isResolved"`
	ResolutionNotes *string                `json:"resolutionNotes,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	LastUpdatedAt   time.Time              `json:"lastUpdatedAt"`
}

// ToAnomalyResponse converts a domain.Anomaly to AnomalyResponse DTO.
func ToAnomalyResponse(a *domain.Anomaly) AnomalyResponse {
	return AnomalyResponse{
		AnomalyID:       a.AnomalyID,
		CompanyID:       a.CompanyID,
		TransactionID:   a.TransactionID,
		Type:            string(a.Type),
		Severity:        string(a.Severity),
		Description:     a.Description,
		Evidence:        a.Evidence,
		IsResolved:      a.IsResolved,
		ResolutionNotes: a.ResolutionNotes,
		CreatedAt:       a.CreatedAt,
		LastUpdatedAt:   a.LastUpdatedAt,
	}
}

// ToListAnomalyResponse converts a slice of domain.Anomaly.
func ToListAnomalyResponse(anomalies []domain.Anomaly) []AnomalyResponse {
	res := make([]AnomalyResponse, len(anomalies))
	for i := range anomalies {
		res[i] = ToAnomalyResponse(&anomalies[i])
	}
	return res
}

// AnalysisResponse is the combined result of one scoring run.
type AnalysisResponse struct {
	HealthScore     HealthScoreResponse        `json:"healthScore"`
	Ratios          domain.RatioSet            `json:"ratios"`
	Anomalies       []AnomalyResponse          `json:"anomalies"`
	Recommendations []domain.Recommendation    `json:"recommendations"`
	Narrative       domain.AssessmentNarrative `json:"narrative"`
}

// ToAnalysisResponse converts a service AnalysisResult to the response DTO.
func ToAnalysisResponse(result *portssvc.AnalysisResult) AnalysisResponse {
	return AnalysisResponse{
		HealthScore:     ToHealthScoreResponse(&result.HealthScore),
		Ratios:          result.Ratios,
		Anomalies:       ToListAnomalyResponse(result.Anomalies),
		Recommendations: result.Recommendations,
		Narrative:       result.Narrative,
	}
}

// ListScoresParams defines query parameters for listing score history.
type ListScoresParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListAnomaliesParams defines query parameters for listing anomalies.
type ListAnomaliesParams struct {
	Severity       *string `form:"severity" binding:"omitempty,oneof=low medium high critical"`
	UnresolvedOnly bool    `form:"unresolvedOnly,default=false"`
	Limit          int     `form:"limit,default=20"`
	Offset         int     `form:"offset,default=0"`
}

// ResolveAnomalyRequest defines the data needed to resolve an anomaly.
type ResolveAnomalyRequest struct {
	Notes string `json:"notes" binding:"required"`
}
