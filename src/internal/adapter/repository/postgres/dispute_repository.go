package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

type DisputeRepository struct {
	db *sql.DB
}

func NewDisputeRepository(db *sql.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Create(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error) {
	const query = `
INSERT INTO disputes (
	id,
	institution_id,
	transaction_id,
	reason,
	status,
	provisional_credit_transaction_id,
	opened_by
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		dispute.ID,
		dispute.InstitutionID,
		dispute.TransactionID,
		dispute.Reason,
		dispute.Status,
		nullString(dispute.ProvisionalCreditTransactionID),
		dispute.OpenedBy,
	).Scan(&dispute.CreatedAt, &dispute.UpdatedAt); err != nil {
		logger.Error("dispute repository create failed", err, logger.Fields{
			"transactionId": dispute.TransactionID,
		})
		return domain.Dispute{}, fmt.Errorf("create dispute: %w", err)
	}

	return dispute, nil
}

const selectDispute = `
SELECT id,
       institution_id,
       transaction_id,
       reason,
       status,
       provisional_credit_transaction_id,
       opened_by,
       resolved_by,
       resolution_note,
       created_at,
       updated_at,
       resolved_at
FROM disputes`

func (r *DisputeRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.Dispute, error) {
	query := selectDispute + `
WHERE institution_id = $1 AND id = $2`

	return scanDispute(r.db.QueryRowContext(ctx, query, institutionID, id))
}

func (r *DisputeRepository) GetOpenByTransaction(ctx context.Context, institutionID string, transactionID string) (domain.Dispute, error) {
	query := selectDispute + `
WHERE institution_id = $1
  AND transaction_id = $2
  AND status IN ('OPEN', 'UNDER_INVESTIGATION')
ORDER BY created_at DESC
LIMIT 1`

	return scanDispute(r.db.QueryRowContext(ctx, query, institutionID, transactionID))
}

func (r *DisputeRepository) Update(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error) {
	const query = `
UPDATE disputes
SET status = $3,
    provisional_credit_transaction_id = $4,
    resolved_by = $5,
    resolution_note = $6,
    resolved_at = $7,
    updated_at = NOW()
WHERE institution_id = $1 AND id = $2
RETURNING created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		dispute.InstitutionID,
		dispute.ID,
		dispute.Status,
		nullString(dispute.ProvisionalCreditTransactionID),
		nullString(dispute.ResolvedBy),
		nullString(dispute.ResolutionNote),
		dispute.ResolvedAt,
	).Scan(&dispute.CreatedAt, &dispute.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Dispute{}, commons.ErrRecordNotFound
		}
		logger.Error("dispute repository update failed", err, logger.Fields{
			"disputeId": dispute.ID,
		})
		return domain.Dispute{}, fmt.Errorf("update dispute: %w", err)
	}

	return dispute, nil
}

func scanDispute(row *sql.Row) (domain.Dispute, error) {
	var (
		dispute        domain.Dispute
		provisionalID  sql.NullString
		resolvedBy     sql.NullString
		resolutionNote sql.NullString
		resolvedAt     sql.NullTime
	)

	if err := row.Scan(
		&dispute.ID,
		&dispute.InstitutionID,
		&dispute.TransactionID,
		&dispute.Reason,
		&dispute.Status,
		&provisionalID,
		&dispute.OpenedBy,
		&resolvedBy,
		&resolutionNote,
		&dispute.CreatedAt,
		&dispute.UpdatedAt,
		&resolvedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Dispute{}, commons.ErrRecordNotFound
		}
		return domain.Dispute{}, fmt.Errorf("scan dispute: %w", err)
	}

	dispute.ProvisionalCreditTransactionID = stringPtr(provisionalID)
	dispute.ResolvedBy = stringPtr(resolvedBy)
	dispute.ResolutionNote = stringPtr(resolutionNote)
	dispute.ResolvedAt = timePtr(resolvedAt)
	return dispute, nil
}

var _ repo_interfaces.DisputeRepository = (*DisputeRepository)(nil)
