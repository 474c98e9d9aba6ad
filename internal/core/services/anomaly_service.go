package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/finpulse/fin_health_app/internal/core/domain"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/finpulse/fin_health_app/internal/platform/config"
	"github.com/shopspring/decimal"
)

// anomalyService implements the AnomalyDetectorSvc interface. Each rule is
// independently evaluated and independently toggleable through the scoring
// policy; one transaction can trigger several anomaly records, reported
// separately so the full evidence survives.
type anomalyService struct {
	BaseService
	policy config.AnomalyPolicy
}

// NewAnomalyService creates a new anomaly detector governed by the given policy.
func NewAnomalyService(policy config.ScoringPolicy) portssvc.AnomalyDetectorSvc {
	return &anomalyService{policy: policy.Anomaly}
}

var _ portssvc.AnomalyDetectorSvc = (*anomalyService)(nil)

// DetectAnomalies scans the normalized transaction list for one period. The
// input sequence order does not matter: transactions are re-sorted internally,
// so a shuffled input yields the same anomaly records. The result is never nil.
func (s *anomalyService) DetectAnomalies(ctx context.Context, companyID string, transactions []domain.Transaction, openingBalance decimal.Decimal) []domain.Anomaly {
	anomalies := []domain.Anomaly{}
	if len(transactions) == 0 {
		return anomalies
	}

	sorted := make([]domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].TransactionID < sorted[j].TransactionID
	})

	baseline := meanAbsoluteAmount(sorted)

	if s.policy.LargeTransaction.Enabled {
		anomalies = append(anomalies, s.detectLargeTransactions(companyID, sorted, baseline)...)
	}
	if s.policy.DuplicateTransaction.Enabled {
		anomalies = append(anomalies, s.detectDuplicates(companyID, sorted)...)
	}
	if s.policy.RoundNumber.Enabled {
		anomalies = append(anomalies, s.detectRoundNumbers(companyID, sorted)...)
	}
	if s.policy.CategoryMismatch.Enabled {
		anomalies = append(anomalies, s.detectCategoryMismatches(companyID, sorted)...)
	}
	if s.policy.UnusualFrequency.Enabled {
		anomalies = append(anomalies, s.detectUnusualFrequency(companyID, sorted)...)
	}
	if s.policy.NegativeBalance.Enabled {
		anomalies = append(anomalies, s.detectNegativeBalance(companyID, sorted, openingBalance)...)
	}

	sort.Slice(anomalies, func(i, j int) bool {
		if anomalies[i].Type != anomalies[j].Type {
			return anomalies[i].Type < anomalies[j].Type
		}
		ti, tj := "", ""
		if anomalies[i].TransactionID != nil {
			ti = *anomalies[i].TransactionID
		}
		if anomalies[j].TransactionID != nil {
			tj = *anomalies[j].TransactionID
		}
		if ti != tj {
			return ti < tj
		}
		return anomalies[i].Evidence.Date < anomalies[j].Evidence.Date
	})

	s.LogInfo(ctx, "Anomaly scan completed",
		slog.String("company_id", companyID),
		slog.Int("transaction_count", len(transactions)),
		slog.Int("anomaly_count", len(anomalies)))
	return anomalies
}

func meanAbsoluteAmount(transactions []domain.Transaction) decimal.Decimal {
	if len(transactions) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, txn := range transactions {
		total = total.Add(txn.AbsAmount())
	}
	return total.Div(decimal.NewFromInt(int64(len(transactions))))
}

// detectLargeTransactions flags transactions whose magnitude exceeds
// max(multiplier x mean absolute amount, absolute floor). Severity scales with
// how many multiples over the threshold the amount lands.
func (s *anomalyService) detectLargeTransactions(companyID string, transactions []domain.Transaction, baseline decimal.Decimal) []domain.Anomaly {
	threshold := baseline.Mul(decimal.NewFromFloat(s.policy.LargeTransaction.Multiplier))
	floor := decimal.NewFromFloat(s.policy.LargeTransaction.Floor)
	if threshold.LessThan(floor) {
		threshold = floor
	}
	if threshold.IsZero() {
		return nil
	}

	var out []domain.Anomaly
	for _, txn := range transactions {
		abs := txn.AbsAmount()
		if !abs.GreaterThan(threshold) {
			continue
		}
		multiples := abs.Div(threshold)
		severity := domain.SeverityMedium
		if multiples.GreaterThanOrEqual(decimal.NewFromInt(4)) {
			severity = domain.SeverityCritical
		} else if multiples.GreaterThanOrEqual(decimal.NewFromInt(2)) {
			severity = domain.SeverityHigh
		}

		txnID := txn.TransactionID
		out = append(out, domain.Anomaly{
			CompanyID:     companyID,
			TransactionID: &txnID,
			Type:          domain.AnomalyLargeTransaction,
			Severity:      severity,
			Description:   fmt.Sprintf("Unusually large transaction of %s against a baseline average of %s", abs.StringFixed(2), baseline.StringFixed(2)),
			Evidence: domain.AnomalyEvidence{
				Amount:          &abs,
				Threshold:       &threshold,
				BaselineAverage: &baseline,
			},
		})
	}
	return out
}

// detectDuplicates flags repeats of the same (amount, counterparty) pair whose
// dates fall within the configured window of an earlier occurrence. The first
// occurrence is treated as legitimate; every repeat is flagged.
func (s *anomalyService) detectDuplicates(companyID string, transactions []domain.Transaction) []domain.Anomaly {
	groups := make(map[string][]domain.Transaction)
	var keys []string
	for _, txn := range transactions {
		counterparty := ""
		if txn.Counterparty != nil {
			counterparty = *txn.Counterparty
		}
		key := txn.Amount.String() + "|" + counterparty
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], txn)
	}
	sort.Strings(keys)

	windowHours := float64(s.policy.DuplicateTransaction.WindowDays) * 24

	var out []domain.Anomaly
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		for i := 1; i < len(group); i++ {
			matches := 0
			for j := 0; j < i; j++ {
				if group[i].Date.Sub(group[j].Date).Hours() <= windowHours {
					matches++
				}
			}
			if matches == 0 {
				continue
			}
			severity := domain.SeverityMedium
			if matches >= 2 {
				severity = domain.SeverityHigh
			}
			occurrences := matches + 1
			amount := group[i].AbsAmount()
			txnID := group[i].TransactionID
			out = append(out, domain.Anomaly{
				CompanyID:     companyID,
				TransactionID: &txnID,
				Type:          domain.AnomalyDuplicateTransaction,
				Severity:      severity,
				Description:   fmt.Sprintf("Possible duplicate entry: %s seen %d times within %d days", group[i].Amount.StringFixed(2), occurrences, s.policy.DuplicateTransaction.WindowDays),
				Evidence: domain.AnomalyEvidence{
					Amount:      &amount,
					Occurrences: &occurrences,
					Date:        group[i].Date.Format("2006-01-02"),
				},
			})
		}
	}
	return out
}

// detectRoundNumbers flags exact round amounts above the materiality floor.
// Statistically associated with manual or artificial entries, hence low severity.
func (s *anomalyService) detectRoundNumbers(companyID string, transactions []domain.Transaction) []domain.Anomaly {
	unit := decimal.NewFromFloat(s.policy.RoundNumber.Unit)
	floor := decimal.NewFromFloat(s.policy.RoundNumber.MaterialityFloor)
	if unit.IsZero() {
		return nil
	}

	var out []domain.Anomaly
	for _, txn := range transactions {
		abs := txn.AbsAmount()
		if abs.LessThan(floor) || !abs.Mod(unit).IsZero() {
			continue
		}
		txnID := txn.TransactionID
		out = append(out, domain.Anomaly{
			CompanyID:     companyID,
			TransactionID: &txnID,
			Type:          domain.AnomalyRoundNumberPattern,
			Severity:      domain.SeverityLow,
			Description:   fmt.Sprintf("Round-number amount %s (multiple of %s)", abs.StringFixed(2), unit.StringFixed(0)),
			Evidence: domain.AnomalyEvidence{
				Amount:    &abs,
				Threshold: &floor,
			},
		})
	}
	return out
}

// detectCategoryMismatches flags transactions whose description matches one
// category's keyword rules while the assigned category says otherwise. This is
// a data-quality signal on ingested categories, not a scoring input.
func (s *anomalyService) detectCategoryMismatches(companyID string, transactions []domain.Transaction) []domain.Anomaly {
	var out []domain.Anomaly
	for _, txn := range transactions {
		expected := classifyDescription(txn.Description)
		if expected == "" || txn.Category == "" || txn.Category == domain.CategoryUncategorized || txn.Category == expected {
			continue
		}
		txnID := txn.TransactionID
		out = append(out, domain.Anomaly{
			CompanyID:     companyID,
			TransactionID: &txnID,
			Type:          domain.AnomalyCategoryMismatch,
			Severity:      domain.SeverityLow,
			Description:   fmt.Sprintf("Description suggests category %q but transaction is tagged %q", expected, txn.Category),
			Evidence: domain.AnomalyEvidence{
				ExpectedCategory: expected,
				ActualCategory:   txn.Category,
			},
		})
	}
	return out
}

// detectUnusualFrequency flags days whose transaction count is a multiple of the
// period's mean daily count.
func (s *anomalyService) detectUnusualFrequency(companyID string, transactions []domain.Transaction) []domain.Anomaly {
	counts := make(map[string]int)
	var days []string
	for _, txn := range transactions {
		day := txn.Date.Format("2006-01-02")
		if _, seen := counts[day]; !seen {
			days = append(days, day)
		}
		counts[day]++
	}
	if len(days) == 0 {
		return nil
	}
	sort.Strings(days)

	meanDaily := float64(len(transactions)) / float64(len(days))
	threshold := meanDaily * s.policy.UnusualFrequency.Multiplier
	if minCount := float64(s.policy.UnusualFrequency.MinCount); threshold < minCount {
		threshold = minCount
	}

	var out []domain.Anomaly
	for _, day := range days {
		count := counts[day]
		if float64(count) < threshold {
			continue
		}
		severity := domain.SeverityLow
		if float64(count) >= 2*threshold {
			severity = domain.SeverityMedium
		}
		occurrences := count
		out = append(out, domain.Anomaly{
			CompanyID:   companyID,
			Type:        domain.AnomalyUnusualFrequency,
			Severity:    severity,
			Description: fmt.Sprintf("%d transactions on %s against a daily average of %.1f", count, day, meanDaily),
			Evidence: domain.AnomalyEvidence{
				Occurrences: &occurrences,
				Date:        day,
			},
		})
	}
	return out
}

// detectNegativeBalance walks the running balance from the declared opening
// balance and flags the first transaction that takes it below zero.
func (s *anomalyService) detectNegativeBalance(companyID string, transactions []domain.Transaction, openingBalance decimal.Decimal) []domain.Anomaly {
	running := openingBalance
	for _, txn := range transactions {
		running = running.Add(txn.Amount)
		if !running.IsNegative() {
			continue
		}
		balance := running
		txnID := txn.TransactionID
		return []domain.Anomaly{{
			CompanyID:     companyID,
			TransactionID: &txnID,
			Type:          domain.AnomalyNegativeBalanceRisk,
			Severity:      domain.SeverityHigh,
			Description:   fmt.Sprintf("Running balance falls to %s on %s", balance.StringFixed(2), txn.Date.Format("2006-01-02")),
			Evidence: domain.AnomalyEvidence{
				Amount: &balance,
				Date:   txn.Date.Format("2006-01-02"),
			},
		}}
	}
	return nil
}
