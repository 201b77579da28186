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

type LoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	const query = `
INSERT INTO loans (
	id,
	institution_id,
	account_number,
	product_code,
	currency,
	principal,
	annual_rate,
	penalty_rate,
	tenure_months,
	repayment_interval_months,
	method,
	interest_before_penalty,
	status,
	disbursed_at,
	first_due_date
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
)
RETURNING created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		loan.ID,
		loan.InstitutionID,
		loan.AccountNumber,
		loan.ProductCode,
		loan.Currency,
		loan.Principal,
		loan.AnnualRate,
		loan.PenaltyRate,
		loan.TenureMonths,
		loan.RepaymentIntervalMonths,
		loan.Method,
		loan.InterestBeforePenalty,
		loan.Status,
		loan.DisbursedAt,
		loan.FirstDueDate,
	).Scan(&loan.CreatedAt, &loan.UpdatedAt); err != nil {
		logger.Error("loan repository create failed", err, logger.Fields{
			"accountNumber": loan.AccountNumber,
		})
		return domain.Loan{}, fmt.Errorf("create loan: %w", err)
	}

	return loan, nil
}

func (r *LoanRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.Loan, error) {
	const query = `
SELECT id,
       institution_id,
       account_number,
       product_code,
       currency,
       principal,
       annual_rate,
       penalty_rate,
       tenure_months,
       repayment_interval_months,
       method,
       interest_before_penalty,
       status,
       disbursed_at,
       first_due_date,
       created_at,
       updated_at
FROM loans
WHERE institution_id = $1 AND id = $2`

	var loan domain.Loan
	if err := r.db.QueryRowContext(ctx, query, institutionID, id).Scan(
		&loan.ID,
		&loan.InstitutionID,
		&loan.AccountNumber,
		&loan.ProductCode,
		&loan.Currency,
		&loan.Principal,
		&loan.AnnualRate,
		&loan.PenaltyRate,
		&loan.TenureMonths,
		&loan.RepaymentIntervalMonths,
		&loan.Method,
		&loan.InterestBeforePenalty,
		&loan.Status,
		&loan.DisbursedAt,
		&loan.FirstDueDate,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Loan{}, commons.ErrRecordNotFound
		}
		return domain.Loan{}, fmt.Errorf("get loan: %w", err)
	}

	return loan, nil
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, institutionID string, id string, status domain.LoanStatus) error {
	const query = `
UPDATE loans
SET status = $3,
    updated_at = NOW()
WHERE institution_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, institutionID, id, status)
	if err != nil {
		logger.Error("loan repository update status failed", err, logger.Fields{
			"loanId": id,
		})
		return fmt.Errorf("update loan status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update loan status rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrRecordNotFound
	}
	return nil
}

type ScheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) CreateEntries(ctx context.Context, entries []domain.RepaymentScheduleEntry) ([]domain.RepaymentScheduleEntry, error) {
	const query = `
INSERT INTO loan_repayment_schedules (
	id,
	loan_id,
	installment_number,
	due_date,
	principal_due,
	interest_due,
	penalty_due,
	principal_paid,
	interest_paid,
	penalty_paid,
	status,
	penalty_accrued_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING created_at, updated_at`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin schedule tx: %w", err)
	}

	created := make([]domain.RepaymentScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if err := tx.QueryRowContext(
			ctx,
			query,
			entry.ID,
			entry.LoanID,
			entry.InstallmentNumber,
			entry.DueDate,
			entry.PrincipalDue,
			entry.InterestDue,
			entry.PenaltyDue,
			entry.PrincipalPaid,
			entry.InterestPaid,
			entry.PenaltyPaid,
			entry.Status,
			entry.PenaltyAccruedAt,
		).Scan(&entry.CreatedAt, &entry.UpdatedAt); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("create schedule entry %d: %w", entry.InstallmentNumber, err)
		}
		created = append(created, entry)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit schedule tx: %w", err)
	}
	return created, nil
}

func (r *ScheduleRepository) ListByLoan(ctx context.Context, loanID string) ([]domain.RepaymentScheduleEntry, error) {
	const query = `
SELECT id,
       loan_id,
       installment_number,
       due_date,
       principal_due,
       interest_due,
       penalty_due,
       principal_paid,
       interest_paid,
       penalty_paid,
       status,
       penalty_accrued_at,
       created_at,
       updated_at
FROM loan_repayment_schedules
WHERE loan_id = $1
ORDER BY installment_number`

	rows, err := r.db.QueryContext(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.RepaymentScheduleEntry
	for rows.Next() {
		var entry domain.RepaymentScheduleEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.LoanID,
			&entry.InstallmentNumber,
			&entry.DueDate,
			&entry.PrincipalDue,
			&entry.InterestDue,
			&entry.PenaltyDue,
			&entry.PrincipalPaid,
			&entry.InterestPaid,
			&entry.PenaltyPaid,
			&entry.Status,
			&entry.PenaltyAccruedAt,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule entries: %w", err)
	}
	return entries, nil
}

func (r *ScheduleRepository) UpdateEntry(ctx context.Context, entry domain.RepaymentScheduleEntry) error {
	const query = `
UPDATE loan_repayment_schedules
SET penalty_due = $2,
    principal_paid = $3,
    interest_paid = $4,
    penalty_paid = $5,
    status = $6,
    penalty_accrued_at = $7,
    updated_at = NOW()
WHERE id = $1`

	result, err := r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.PenaltyDue,
		entry.PrincipalPaid,
		entry.InterestPaid,
		entry.PenaltyPaid,
		entry.Status,
		entry.PenaltyAccruedAt,
	)
	if err != nil {
		logger.Error("schedule repository update entry failed", err, logger.Fields{
			"entryId": entry.ID,
		})
		return fmt.Errorf("update schedule entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update schedule entry rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrRecordNotFound
	}
	return nil
}

var _ repo_interfaces.LoanRepository = (*LoanRepository)(nil)
var _ repo_interfaces.ScheduleRepository = (*ScheduleRepository)(nil)
