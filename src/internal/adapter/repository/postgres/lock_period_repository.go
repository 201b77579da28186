package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

type LockPeriodRepository struct {
	db *sql.DB
}

func NewLockPeriodRepository(db *sql.DB) *LockPeriodRepository {
	return &LockPeriodRepository{db: db}
}

func (r *LockPeriodRepository) Create(ctx context.Context, period domain.LedgerLockPeriod) (domain.LedgerLockPeriod, error) {
	const query = `
INSERT INTO ledger_lock_periods (
	id,
	institution_id,
	start_date,
	end_date,
	locked,
	locked_by
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		period.ID,
		period.InstitutionID,
		period.StartDate,
		period.EndDate,
		period.Locked,
		period.LockedBy,
	).Scan(&period.CreatedAt, &period.UpdatedAt); err != nil {
		logger.Error("lock period repository create failed", err, logger.Fields{
			"institutionId": period.InstitutionID,
		})
		return domain.LedgerLockPeriod{}, fmt.Errorf("create lock period: %w", err)
	}

	return period, nil
}

const selectLockPeriod = `
SELECT id,
       institution_id,
       start_date,
       end_date,
       locked,
       locked_by,
       unlocked_by,
       unlock_reason,
       created_at,
       updated_at
FROM ledger_lock_periods`

func (r *LockPeriodRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.LedgerLockPeriod, error) {
	query := selectLockPeriod + `
WHERE institution_id = $1 AND id = $2`

	return scanLockPeriod(r.db.QueryRowContext(ctx, query, institutionID, id))
}

func (r *LockPeriodRepository) FindLockedCovering(ctx context.Context, institutionID string, date time.Time) (domain.LedgerLockPeriod, error) {
	query := selectLockPeriod + `
WHERE institution_id = $1
  AND locked = TRUE
  AND start_date::date <= $2::date
  AND end_date::date >= $2::date
ORDER BY created_at DESC
LIMIT 1`

	return scanLockPeriod(r.db.QueryRowContext(ctx, query, institutionID, date))
}

func (r *LockPeriodRepository) Unlock(ctx context.Context, institutionID string, id string, staffID string, reason string) error {
	const query = `
UPDATE ledger_lock_periods
SET locked = FALSE,
    unlocked_by = $3,
    unlock_reason = $4,
    updated_at = NOW()
WHERE institution_id = $1
  AND id = $2
  AND locked = TRUE`

	result, err := r.db.ExecContext(ctx, query, institutionID, id, staffID, reason)
	if err != nil {
		logger.Error("lock period repository unlock failed", err, logger.Fields{
			"periodId": id,
		})
		return fmt.Errorf("unlock period: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unlock period rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, institutionID, id); err != nil {
			return err
		}
		return commons.ErrInvalidStateTransition
	}
	return nil
}

func scanLockPeriod(row *sql.Row) (domain.LedgerLockPeriod, error) {
	var (
		period       domain.LedgerLockPeriod
		unlockedBy   sql.NullString
		unlockReason sql.NullString
	)

	if err := row.Scan(
		&period.ID,
		&period.InstitutionID,
		&period.StartDate,
		&period.EndDate,
		&period.Locked,
		&period.LockedBy,
		&unlockedBy,
		&unlockReason,
		&period.CreatedAt,
		&period.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.LedgerLockPeriod{}, commons.ErrRecordNotFound
		}
		return domain.LedgerLockPeriod{}, fmt.Errorf("scan lock period: %w", err)
	}

	period.UnlockedBy = stringPtr(unlockedBy)
	period.UnlockReason = stringPtr(unlockReason)
	return period, nil
}

var _ repo_interfaces.LockPeriodRepository = (*LockPeriodRepository)(nil)
