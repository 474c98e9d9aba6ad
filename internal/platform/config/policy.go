package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ScoringPolicy is the versioned policy data behind the composite scorer and the
// anomaly detector: component weights, per-ratio benchmark bounds, risk and
// credit bands, rule thresholds and toggles. Keeping it as configuration means a
// policy change does not require recompilation and historical health scores stay
// reproducible against the policy version they were scored under.
type ScoringPolicy struct {
	Version string `mapstructure:"version"`

	// Weights per component, expressed in points summing to 100.
	Weights map[string]float64 `mapstructure:"weights"`

	// Components maps each component to the ratios whose scores it averages.
	Components map[string][]string `mapstructure:"components"`

	// Benchmarks holds the linear interpolation bounds per ratio. Poor maps to
	// 0 and Excellent to 100; for lower-is-better ratios Poor is numerically
	// greater than Excellent, which inverts the slope without a separate flag.
	Benchmarks map[string]RatioBenchmark `mapstructure:"benchmarks"`

	RiskBands               RiskBands     `mapstructure:"risk_bands"`
	CreditBands             []CreditBand  `mapstructure:"credit_bands"`
	NeedsAttentionThreshold float64       `mapstructure:"needs_attention_threshold"`
	Anomaly                 AnomalyPolicy `mapstructure:"anomaly"`
}

// RatioBenchmark is one ratio's interpolation interval.
type RatioBenchmark struct {
	Poor      float64 `mapstructure:"poor"`
	Excellent float64 `mapstructure:"excellent"`
}

// RiskBands holds the inclusive lower score bounds of the low/medium/high bands;
// anything below High is critical.
type RiskBands struct {
	Low    float64 `mapstructure:"low"`
	Medium float64 `mapstructure:"medium"`
	High   float64 `mapstructure:"high"`
}

// CreditBand maps a letter rating to its strict lower score bound. A score must
// exceed the bound to earn the rating, so boundary ties fall to the safer
// (lower) rating. Bands must be listed from best to worst.
type CreditBand struct {
	Rating string  `mapstructure:"rating"`
	Above  float64 `mapstructure:"above"`
}

// AnomalyPolicy holds per-rule toggles and thresholds. Rules are independent; a
// disabled rule simply emits nothing.
type AnomalyPolicy struct {
	LargeTransaction struct {
		Enabled    bool    `mapstructure:"enabled"`
		Multiplier float64 `mapstructure:"multiplier"` // Of mean absolute amount
		Floor      float64 `mapstructure:"floor"`      // Absolute threshold floor
	} `mapstructure:"large_transaction"`
	DuplicateTransaction struct {
		Enabled    bool `mapstructure:"enabled"`
		WindowDays int  `mapstructure:"window_days"`
	} `mapstructure:"duplicate_transaction"`
	RoundNumber struct {
		Enabled          bool    `mapstructure:"enabled"`
		Unit             float64 `mapstructure:"unit"`
		MaterialityFloor float64 `mapstructure:"materiality_floor"`
	} `mapstructure:"round_number"`
	CategoryMismatch struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"category_mismatch"`
	UnusualFrequency struct {
		Enabled    bool    `mapstructure:"enabled"`
		Multiplier float64 `mapstructure:"multiplier"` // Of mean daily transaction count
		MinCount   int     `mapstructure:"min_count"`
	} `mapstructure:"unusual_frequency"`
	NegativeBalance struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"negative_balance"`
}

// DefaultScoringPolicy returns the compiled-in policy, version "2024.1".
func DefaultScoringPolicy() ScoringPolicy {
	p := ScoringPolicy{
		Version: "2024.1",
		Weights: map[string]float64{
			"cash_flow":     25,
			"profitability": 25,
			"leverage":      20,
			"efficiency":    15,
			"stability":     15,
		},
		Components: map[string][]string{
			"cash_flow":     {"current_ratio", "quick_ratio", "cash_ratio"},
			"profitability": {"gross_margin", "operating_margin", "net_margin", "return_on_assets", "return_on_equity"},
			"leverage":      {"debt_to_equity", "debt_to_assets", "interest_coverage_ratio"},
			"efficiency":    {"receivables_turnover", "payables_turnover", "inventory_turnover"},
			"stability":     {"dscr"},
		},
		Benchmarks: map[string]RatioBenchmark{
			"current_ratio":           {Poor: 0.5, Excellent: 2.5},
			"quick_ratio":             {Poor: 0.4, Excellent: 1.5},
			"cash_ratio":              {Poor: 0.1, Excellent: 0.75},
			"debt_to_equity":          {Poor: 1.5, Excellent: 0.2},
			"debt_to_assets":          {Poor: 0.8, Excellent: 0.2},
			"interest_coverage_ratio": {Poor: 1.0, Excellent: 6.0},
			"receivables_turnover":    {Poor: 4, Excellent: 12},
			"payables_turnover":       {Poor: 6, Excellent: 15},
			"inventory_turnover":      {Poor: 3, Excellent: 10},
			"gross_margin":            {Poor: 20, Excellent: 60},
			"operating_margin":        {Poor: 5, Excellent: 25},
			"net_margin":              {Poor: 2, Excellent: 15},
			"return_on_assets":        {Poor: 0.02, Excellent: 0.12},
			"return_on_equity":        {Poor: 0.05, Excellent: 0.20},
			"dscr":                    {Poor: 0.75, Excellent: 2.0},
		},
		RiskBands: RiskBands{Low: 80, Medium: 60, High: 40},
		CreditBands: []CreditBand{
			{Rating: "AAA", Above: 90},
			{Rating: "AA", Above: 80},
			{Rating: "A", Above: 70},
			{Rating: "BBB", Above: 60},
			{Rating: "BB", Above: 50},
			{Rating: "B", Above: 40},
			{Rating: "CCC", Above: 0},
		},
		NeedsAttentionThreshold: 70,
	}

	p.Anomaly.LargeTransaction.Enabled = true
	p.Anomaly.LargeTransaction.Multiplier = 3
	p.Anomaly.LargeTransaction.Floor = 150000
	p.Anomaly.DuplicateTransaction.Enabled = true
	p.Anomaly.DuplicateTransaction.WindowDays = 3
	p.Anomaly.RoundNumber.Enabled = true
	p.Anomaly.RoundNumber.Unit = 10000
	p.Anomaly.RoundNumber.MaterialityFloor = 50000
	p.Anomaly.CategoryMismatch.Enabled = true
	p.Anomaly.UnusualFrequency.Enabled = true
	p.Anomaly.UnusualFrequency.Multiplier = 5
	p.Anomaly.UnusualFrequency.MinCount = 5
	p.Anomaly.NegativeBalance.Enabled = true

	return p
}

// LoadScoringPolicy reads the policy file at path, falling back to the compiled-in
// defaults when path is empty or the file does not exist. A present-but-invalid
// file is an error: silently scoring under the wrong policy is worse than failing
// startup.
func LoadScoringPolicy(path string) (ScoringPolicy, error) {
	policy := DefaultScoringPolicy()
	if path == "" {
		return policy, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return policy, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return ScoringPolicy{}, fmt.Errorf("failed to read scoring policy %s: %w", path, err)
	}
	if err := v.Unmarshal(&policy); err != nil {
		return ScoringPolicy{}, fmt.Errorf("failed to parse scoring policy %s: %w", path, err)
	}
	if err := policy.validate(); err != nil {
		return ScoringPolicy{}, fmt.Errorf("invalid scoring policy %s: %w", path, err)
	}
	return policy, nil
}

func (p ScoringPolicy) validate() error {
	if p.Version == "" {
		return fmt.Errorf("version is required")
	}
	total := 0.0
	for component, weight := range p.Weights {
		if weight <= 0 {
			return fmt.Errorf("weight for %s must be positive", component)
		}
		if _, ok := p.Components[component]; !ok {
			return fmt.Errorf("no ratio mapping for weighted component %s", component)
		}
		total += weight
	}
	if total != 100 {
		return fmt.Errorf("component weights must sum to 100, got %v", total)
	}
	for ratio, bench := range p.Benchmarks {
		if bench.Poor == bench.Excellent {
			return fmt.Errorf("benchmark for %s has equal poor and excellent bounds", ratio)
		}
	}
	if len(p.CreditBands) == 0 {
		return fmt.Errorf("at least one credit band is required")
	}
	return nil
}
