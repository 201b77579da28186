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

type ApprovalRepository struct {
	db *sql.DB
}

func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Create(ctx context.Context, approval domain.Approval) (domain.Approval, error) {
	const query = `
INSERT INTO approvals (
	id,
	institution_id,
	reference_type,
	reference_id,
	maker_id,
	status,
	reason
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		approval.ID,
		approval.InstitutionID,
		approval.ReferenceType,
		approval.ReferenceID,
		approval.MakerID,
		approval.Status,
		approval.Reason,
	).Scan(&approval.CreatedAt, &approval.UpdatedAt); err != nil {
		logger.Error("approval repository create failed", err, logger.Fields{
			"referenceType": approval.ReferenceType,
			"referenceId":   approval.ReferenceID,
		})
		return domain.Approval{}, fmt.Errorf("create approval: %w", err)
	}

	return approval, nil
}

const selectApproval = `
SELECT id,
       institution_id,
       reference_type,
       reference_id,
       maker_id,
       checker_id,
       status,
       reason,
       decision_note,
       created_at,
       updated_at,
       decided_at
FROM approvals`

func (r *ApprovalRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.Approval, error) {
	query := selectApproval + `
WHERE institution_id = $1 AND id = $2`

	return scanApproval(r.db.QueryRowContext(ctx, query, institutionID, id))
}

func (r *ApprovalRepository) GetLatestByReference(ctx context.Context, institutionID string, referenceType domain.ApprovalReferenceType, referenceID string) (domain.Approval, error) {
	query := selectApproval + `
WHERE institution_id = $1
  AND reference_type = $2
  AND reference_id = $3
ORDER BY created_at DESC
LIMIT 1`

	return scanApproval(r.db.QueryRowContext(ctx, query, institutionID, referenceType, referenceID))
}

func (r *ApprovalRepository) UpdateStatus(ctx context.Context, institutionID string, id string, from domain.ApprovalStatus, to domain.ApprovalStatus, checkerID *string, note *string) error {
	const query = `
UPDATE approvals
SET status = $4,
    checker_id = COALESCE($5, checker_id),
    decision_note = COALESCE($6, decision_note),
    updated_at = NOW(),
    decided_at = CASE
        WHEN $4 IN ('APPROVED', 'REJECTED') THEN NOW()
        ELSE decided_at
    END
WHERE institution_id = $1
  AND id = $2
  AND status = $3`

	result, err := r.db.ExecContext(ctx, query, institutionID, id, from, to, nullString(checkerID), nullString(note))
	if err != nil {
		logger.Error("approval repository update status failed", err, logger.Fields{
			"approvalId": id,
			"status":     to,
		})
		return fmt.Errorf("update approval status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update approval status rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, institutionID, id); err != nil {
			return err
		}
		return commons.ErrInvalidStateTransition
	}
	return nil
}

func scanApproval(row *sql.Row) (domain.Approval, error) {
	var (
		approval     domain.Approval
		checkerID    sql.NullString
		decisionNote sql.NullString
		decidedAt    sql.NullTime
	)

	if err := row.Scan(
		&approval.ID,
		&approval.InstitutionID,
		&approval.ReferenceType,
		&approval.ReferenceID,
		&approval.MakerID,
		&checkerID,
		&approval.Status,
		&approval.Reason,
		&decisionNote,
		&approval.CreatedAt,
		&approval.UpdatedAt,
		&decidedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Approval{}, commons.ErrRecordNotFound
		}
		return domain.Approval{}, fmt.Errorf("scan approval: %w", err)
	}

	approval.CheckerID = stringPtr(checkerID)
	approval.DecisionNote = stringPtr(decisionNote)
	approval.DecidedAt = timePtr(decidedAt)
	return approval, nil
}

var _ repo_interfaces.ApprovalRepository = (*ApprovalRepository)(nil)
