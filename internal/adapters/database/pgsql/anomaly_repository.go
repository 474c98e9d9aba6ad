package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/finpulse/fin_health_app/internal/core/domain"
	portsrepo "github.com/finpulse/fin_health_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type anomalyRepository struct {
	pool *pgxpool.Pool
}

// NewAnomalyRepository creates a new repository for anomaly data.
func NewAnomalyRepository(pool *pgxpool.Pool) portsrepo.AnomalyRepository {
	return &anomalyRepository{pool: pool}
}

// SaveAnomalies batch-inserts the anomalies of one scoring run. Evidence is
// stored as JSONB since each rule populates a different subset of fields.
func (r *anomalyRepository) SaveAnomalies(ctx context.Context, anomalies []domain.Anomaly) error {
	if len(anomalies) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO anomalies (anomaly_id, company_id, transaction_id, type, severity, description, evidence, is_resolved, resolution_notes, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	batch := &pgx.Batch{}
	for _, anomaly := range anomalies {
		evidence, err := json.Marshal(anomaly.Evidence)
		if err != nil {
			return fmt.Errorf("failed to marshal evidence for anomaly %s: %w", anomaly.AnomalyID, err)
		}
		batch.Queue(query,
			anomaly.AnomalyID,
			anomaly.CompanyID,
			anomaly.TransactionID,
			anomaly.Type,
			anomaly.Severity,
			anomaly.Description,
			evidence,
			anomaly.IsResolved,
			anomaly.ResolutionNotes,
			anomaly.CreatedAt,
			anomaly.CreatedBy,
			anomaly.LastUpdatedAt,
			anomaly.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute anomaly batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit anomaly batch: %w", err)
	}
	return nil
}

const anomalyColumns = `anomaly_id, company_id, transaction_id, type, severity, description, evidence, is_resolved, resolution_notes, created_at, created_by, last_updated_at, last_updated_by`

func scanAnomaly(row pgx.Row) (*domain.Anomaly, error) {
	var anomaly domain.Anomaly
	var evidence []byte
	err := row.Scan(
		&anomaly.AnomalyID,
		&anomaly.CompanyID,
		&anomaly.TransactionID,
		&anomaly.Type,
		&anomaly.Severity,
		&anomaly.Description,
		&evidence,
		&anomaly.IsResolved,
		&anomaly.ResolutionNotes,
		&anomaly.CreatedAt,
		&anomaly.CreatedBy,
		&anomaly.LastUpdatedAt,
		&anomaly.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(evidence, &anomaly.Evidence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal evidence for anomaly %s: %w", anomaly.AnomalyID, err)
	}
	return &anomaly, nil
}

// FindAnomalyByID retrieves one anomaly by its ID.
func (r *anomalyRepository) FindAnomalyByID(ctx context.Context, anomalyID string) (*domain.Anomaly, error) {
	query := `
		SELECT ` + anomalyColumns + `
		FROM anomalies
		WHERE anomaly_id = $1;
	`
	anomaly, err := scanAnomaly(r.pool.QueryRow(ctx, query, anomalyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find anomaly by ID %s: %w", anomalyID, err)
	}
	return anomaly, nil
}

// ListByCompany retrieves a page of a company's anomalies, newest first, with
// optional severity and unresolved filters.
func (r *anomalyRepository) ListByCompany(ctx context.Context, companyID string, severity *domain.Severity, unresolvedOnly bool, limit, offset int) ([]domain.Anomaly, error) {
	query := `
		SELECT ` + anomalyColumns + `
		FROM anomalies
		WHERE company_id = $1
		  AND ($2::text IS NULL OR severity = $2)
		  AND (NOT $3 OR is_resolved = FALSE)
		ORDER BY created_at DESC, anomaly_id DESC
		LIMIT $4 OFFSET $5;
	`
	rows, err := r.pool.Query(ctx, query, companyID, severity, unresolvedOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies for company %s: %w", companyID, err)
	}
	defer rows.Close()

	anomalies := make([]domain.Anomaly, 0)
	for rows.Next() {
		anomaly, err := scanAnomaly(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan anomaly row for company %s: %w", companyID, err)
		}
		anomalies = append(anomalies, *anomaly)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating anomaly rows for company %s: %w", companyID, err)
	}
	return anomalies, nil
}

// MarkResolved records the human resolution of one anomaly.
func (r *anomalyRepository) MarkResolved(ctx context.Context, anomalyID, notes, resolvedBy string, resolvedAt time.Time) error {
	query := `
		UPDATE anomalies
		SET is_resolved = TRUE, resolution_notes = $2, last_updated_at = $3, last_updated_by = $4
		WHERE anomaly_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, anomalyID, notes, resolvedAt, resolvedBy)
	if err != nil {
		return fmt.Errorf("failed to resolve anomaly %s: %w", anomalyID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
