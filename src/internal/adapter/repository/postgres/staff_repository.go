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

type StaffRepository struct {
	db *sql.DB
}

func NewStaffRepository(db *sql.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) Create(ctx context.Context, staff domain.Staff) (domain.Staff, error) {
	const query = `
INSERT INTO staff (
	id,
	institution_id,
	staff_id,
	full_name,
	role,
	approval_pin_hash,
	supervisor_id
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		staff.ID,
		staff.InstitutionID,
		staff.StaffID,
		staff.FullName,
		staff.Role,
		staff.ApprovalPINHash,
		nullString(staff.SupervisorID),
	).Scan(&staff.CreatedAt, &staff.UpdatedAt); err != nil {
		if uniqueViolation(err) {
			return domain.Staff{}, fmt.Errorf("staff %s already exists", staff.StaffID)
		}
		logger.Error("staff repository create failed", err, logger.Fields{
			"staffId": staff.StaffID,
		})
		return domain.Staff{}, fmt.Errorf("create staff: %w", err)
	}

	return staff, nil
}

func (r *StaffRepository) GetByStaffID(ctx context.Context, institutionID string, staffID string) (domain.Staff, error) {
	const query = `
SELECT id,
       institution_id,
       staff_id,
       full_name,
       role,
       approval_pin_hash,
       supervisor_id,
       created_at,
       updated_at
FROM staff
WHERE institution_id = $1 AND staff_id = $2`

	var (
		staff        domain.Staff
		supervisorID sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, query, institutionID, staffID).Scan(
		&staff.ID,
		&staff.InstitutionID,
		&staff.StaffID,
		&staff.FullName,
		&staff.Role,
		&staff.ApprovalPINHash,
		&supervisorID,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Staff{}, commons.ErrRecordNotFound
		}
		return domain.Staff{}, fmt.Errorf("get staff: %w", err)
	}

	staff.SupervisorID = stringPtr(supervisorID)
	return staff, nil
}

var _ repo_interfaces.StaffRepository = (*StaffRepository)(nil)
