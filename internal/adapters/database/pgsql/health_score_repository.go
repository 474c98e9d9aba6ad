package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/finpulse/fin_health_app/internal/core/domain"
	portsrepo "github.com/finpulse/fin_health_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type healthScoreRepository struct {
	pool *pgxpool.Pool
}

// NewHealthScoreRepository creates a new repository for health score data.
func NewHealthScoreRepository(pool *pgxpool.Pool) portsrepo.HealthScoreRepository {
	return &healthScoreRepository{pool: pool}
}

// SaveHealthScore appends one immutable scoring-run result. The component
// breakdown is stored as JSONB so undefined component scores round-trip with
// their reasons intact.
func (r *healthScoreRepository) SaveHealthScore(ctx context.Context, score domain.HealthScore) error {
	components, err := json.Marshal(score.Components)
	if err != nil {
		return fmt.Errorf("failed to marshal components for score %s: %w", score.ScoreID, err)
	}

	query := `
		INSERT INTO health_scores (score_id, company_id, policy_version, overall_score, components, risk_level, credit_rating, previous_score, score_change, period_start, period_end, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = r.pool.Exec(ctx, query,
		score.ScoreID,
		score.CompanyID,
		score.PolicyVersion,
		score.OverallScore,
		components,
		score.RiskLevel,
		score.CreditRating,
		score.PreviousScore,
		score.ScoreChange,
		score.PeriodStart,
		score.PeriodEnd,
		score.CreatedAt,
		score.CreatedBy,
		score.LastUpdatedAt,
		score.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("health score %s: %w", score.ScoreID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save health score %s: %w", score.ScoreID, err)
	}
	return nil
}

const healthScoreColumns = `score_id, company_id, policy_version, overall_score, components, risk_level, credit_rating, previous_score, score_change, period_start, period_end, created_at, created_by, last_updated_at, last_updated_by`

func scanHealthScore(row pgx.Row) (*domain.HealthScore, error) {
	var score domain.HealthScore
	var components []byte
	err := row.Scan(
		&score.ScoreID,
		&score.CompanyID,
		&score.PolicyVersion,
		&score.OverallScore,
		&components,
		&score.RiskLevel,
		&score.CreditRating,
		&score.PreviousScore,
		&score.ScoreChange,
		&score.PeriodStart,
		&score.PeriodEnd,
		&score.CreatedAt,
		&score.CreatedBy,
		&score.LastUpdatedAt,
		&score.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(components, &score.Components); err != nil {
		return nil, fmt.Errorf("failed to unmarshal components for score %s: %w", score.ScoreID, err)
	}
	return &score, nil
}

// FindLatestByCompany retrieves the most recent score for a company.
func (r *healthScoreRepository) FindLatestByCompany(ctx context.Context, companyID string) (*domain.HealthScore, error) {
	query := `
		SELECT ` + healthScoreColumns + `
		FROM health_scores
		WHERE company_id = $1
		ORDER BY created_at DESC, score_id DESC
		LIMIT 1;
	`
	score, err := scanHealthScore(r.pool.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest score for company %s: %w", companyID, err)
	}
	return score, nil
}

// ListByCompany retrieves a page of score history for a company, newest first.
func (r *healthScoreRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]domain.HealthScore, error) {
	query := `
		SELECT ` + healthScoreColumns + `
		FROM health_scores
		WHERE company_id = $1
		ORDER BY created_at DESC, score_id DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.pool.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores for company %s: %w", companyID, err)
	}
	defer rows.Close()

	scores := make([]domain.HealthScore, 0)
	for rows.Next() {
		score, err := scanHealthScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score row for company %s: %w", companyID, err)
		}
		scores = append(scores, *score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating score rows for company %s: %w", companyID, err)
	}
	return scores, nil
}
