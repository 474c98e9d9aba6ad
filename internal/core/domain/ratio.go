package domain

// Ratio names, used to key benchmark bounds in the scoring policy and to name
// metrics in evidence and logs.
const (
	RatioCurrentRatio        = "current_ratio"
	RatioQuickRatio          = "quick_ratio"
	RatioCashRatio           = "cash_ratio"
	RatioDebtToEquity        = "debt_to_equity"
	RatioDebtToAssets        = "debt_to_assets"
	RatioInterestCoverage    = "interest_coverage_ratio"
	RatioReceivablesTurnover = "receivables_turnover"
	RatioPayablesTurnover    = "payables_turnover"
	RatioInventoryTurnover   = "inventory_turnover"
	RatioGrossMargin         = "gross_margin"
	RatioOperatingMargin     = "operating_margin"
	RatioNetMargin           = "net_margin"
	RatioReturnOnAssets      = "return_on_assets"
	RatioReturnOnEquity      = "return_on_equity"
	RatioDebtServiceCoverage = "dscr"
)

// RatioSet holds one metric per standardized financial ratio. Every field is a
// pure function of a single PeriodAggregate; margins are expressed as
// percentages. Undefined metrics carry the reason (zero denominator, missing
// input field) instead of a silent zero.
type RatioSet struct {
	CurrentRatio          Metric `json:"currentRatio"`
	QuickRatio            Metric `json:"quickRatio"`
	CashRatio             Metric `json:"cashRatio"`
	DebtToEquity          Metric `json:"debtToEquity"`
	DebtToAssets          Metric `json:"debtToAssets"`
	InterestCoverageRatio Metric `json:"interestCoverageRatio"`
	ReceivablesTurnover   Metric `json:"receivablesTurnover"`
	PayablesTurnover      Metric `json:"payablesTurnover"`
	InventoryTurnover     Metric `json:"inventoryTurnover"`
	GrossMargin           Metric `json:"grossMargin"`
	OperatingMargin       Metric `json:"operatingMargin"`
	NetMargin             Metric `json:"netMargin"`
	ReturnOnAssets        Metric `json:"returnOnAssets"`
	ReturnOnEquity        Metric `json:"returnOnEquity"`
	DSCR                  Metric `json:"dscr"`
}

// ByName returns the metric for a policy ratio name. Unknown names come back
// undefined so a policy referencing a ratio this engine does not compute cannot
// smuggle in a zero.
func (r RatioSet) ByName(name string) Metric {
	switch name {
	case RatioCurrentRatio:
		return r.CurrentRatio
	case RatioQuickRatio:
		return r.QuickRatio
	case RatioCashRatio:
		return r.CashRatio
	case RatioDebtToEquity:
		return r.DebtToEquity
	case RatioDebtToAssets:
		return r.DebtToAssets
	case RatioInterestCoverage:
		return r.InterestCoverageRatio
	case RatioReceivablesTurnover:
		return r.ReceivablesTurnover
	case RatioPayablesTurnover:
		return r.PayablesTurnover
	case RatioInventoryTurnover:
		return r.InventoryTurnover
	case RatioGrossMargin:
		return r.GrossMargin
	case RatioOperatingMargin:
		return r.OperatingMargin
	case RatioNetMargin:
		return r.NetMargin
	case RatioReturnOnAssets:
		return r.ReturnOnAssets
	case RatioReturnOnEquity:
		return r.ReturnOnEquity
	case RatioDebtServiceCoverage:
		return r.DSCR
	default:
		return UndefinedMetric("unknown ratio " + name)
	}
}
