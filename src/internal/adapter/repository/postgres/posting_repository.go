package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

type PostingRepository struct {
	db       *sql.DB
	accounts *AccountRepository
}

func NewPostingRepository(db *sql.DB) *PostingRepository {
	return &PostingRepository{db: db, accounts: NewAccountRepository(db)}
}

// ApplyPosting writes the posting row and both balance movements inside one
// database transaction. Balance updates run in ascending account-number
// order so concurrent postings over the same pair cannot deadlock.
func (r *PostingRepository) ApplyPosting(ctx context.Context, posting domain.GLPosting) (domain.GLPosting, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.GLPosting{}, fmt.Errorf("begin posting tx: %w", err)
	}

	const insert = `
INSERT INTO gl_postings (
	id,
	institution_id,
	transaction_id,
	debit_account_number,
	debit_amount,
	credit_account_number,
	credit_amount,
	currency,
	narration,
	value_date,
	status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'PENDING')
RETURNING created_at`

	if err := tx.QueryRowContext(
		ctx,
		insert,
		posting.ID,
		posting.InstitutionID,
		posting.TransactionID,
		posting.DebitAccountNumber,
		posting.DebitAmount,
		posting.CreditAccountNumber,
		posting.CreditAmount,
		posting.Currency,
		posting.Narration,
		posting.ValueDate,
	).Scan(&posting.CreatedAt); err != nil {
		_ = tx.Rollback()
		logger.Error("posting repository insert failed", err, logger.Fields{
			"transactionId": posting.TransactionID,
		})
		return domain.GLPosting{}, fmt.Errorf("insert posting: %w", err)
	}

	movements := []struct {
		accountNumber string
		debit         bool
	}{
		{posting.DebitAccountNumber, true},
		{posting.CreditAccountNumber, false},
	}
	if movements[1].accountNumber < movements[0].accountNumber {
		movements[0], movements[1] = movements[1], movements[0]
	}

	for _, movement := range movements {
		var moveErr error
		if movement.debit {
			moveErr = r.debitTx(ctx, tx, posting.InstitutionID, movement.accountNumber, posting.DebitAmount)
		} else {
			moveErr = r.creditTx(ctx, tx, posting.InstitutionID, movement.accountNumber, posting.CreditAmount)
		}
		if moveErr != nil {
			_ = tx.Rollback()
			return domain.GLPosting{}, r.classifyMovementFailure(ctx, moveErr, posting, movement.accountNumber, movement.debit)
		}
	}

	const markPosted = `
UPDATE gl_postings
SET status = 'POSTED'
WHERE id = $1 AND status = 'PENDING'`

	if _, err := tx.ExecContext(ctx, markPosted, posting.ID); err != nil {
		_ = tx.Rollback()
		return domain.GLPosting{}, fmt.Errorf("mark posting posted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.GLPosting{}, fmt.Errorf("commit posting tx: %w", err)
	}

	posting.Status = domain.PostingStatusPosted
	return posting, nil
}

func (r *PostingRepository) debitTx(ctx context.Context, tx *sql.Tx, institutionID string, accountNumber string, amount decimal.Decimal) error {
	const query = `
UPDATE accounts
SET current_balance = current_balance - $3,
    ledger_balance = ledger_balance - $3,
    version = version + 1,
    updated_at = NOW()
WHERE institution_id = $1
  AND account_number = $2
  AND status IN ('ACTIVE', 'DORMANT')
  AND (
      (overdraft_allowed AND current_balance - hold_balance - $3 >= -overdraft_limit)
      OR (NOT overdraft_allowed AND current_balance - hold_balance - $3 >= 0)
  )`

	result, err := tx.ExecContext(ctx, query, institutionID, accountNumber, amount)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit account rows affected: %w", err)
	}
	if rows == 0 {
		return errNoMovement
	}
	return nil
}

func (r *PostingRepository) creditTx(ctx context.Context, tx *sql.Tx, institutionID string, accountNumber string, amount decimal.Decimal) error {
	const query = `
UPDATE accounts
SET current_balance = current_balance + $3,
    ledger_balance = ledger_balance + $3,
    version = version + 1,
    updated_at = NOW()
WHERE institution_id = $1
  AND account_number = $2
  AND status IN ('ACTIVE', 'DORMANT')`

	result, err := tx.ExecContext(ctx, query, institutionID, accountNumber, amount)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit account rows affected: %w", err)
	}
	if rows == 0 {
		return errNoMovement
	}
	return nil
}

var errNoMovement = fmt.Errorf("balance update touched no rows")

// classifyMovementFailure runs outside the rolled-back transaction so the
// caller gets the precise reason the guarded update missed.
func (r *PostingRepository) classifyMovementFailure(ctx context.Context, moveErr error, posting domain.GLPosting, accountNumber string, debit bool) error {
	if moveErr != errNoMovement {
		return moveErr
	}

	account, err := r.accounts.GetByAccountNumber(ctx, posting.InstitutionID, accountNumber)
	if err != nil {
		return err
	}
	if debit {
		if !account.Status.CanDebit() {
			return statusMutationError(account.Status)
		}
		if !account.CoversDebit(posting.DebitAmount) {
			return commons.ErrInsufficientFunds
		}
	} else if !account.Status.CanCredit() {
		return statusMutationError(account.Status)
	}
	return commons.ErrContention
}

const selectPosting = `
SELECT id,
       institution_id,
       transaction_id,
       debit_account_number,
       debit_amount,
       credit_account_number,
       credit_amount,
       currency,
       narration,
       value_date,
       status,
       is_reversed,
       reversal_posting_id,
       created_at
FROM gl_postings`

func (r *PostingRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.GLPosting, error) {
	query := selectPosting + `
WHERE institution_id = $1 AND id = $2`

	posting, err := scanPosting(r.db.QueryRowContext(ctx, query, institutionID, id))
	if err == sql.ErrNoRows {
		return domain.GLPosting{}, commons.ErrRecordNotFound
	}
	return posting, err
}

func (r *PostingRepository) ListByTransaction(ctx context.Context, institutionID string, transactionID string) ([]domain.GLPosting, error) {
	query := selectPosting + `
WHERE institution_id = $1 AND transaction_id = $2
ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, institutionID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list postings by transaction: %w", err)
	}
	defer rows.Close()

	return collectPostings(rows)
}

func (r *PostingRepository) MarkReversed(ctx context.Context, institutionID string, id string, reversalPostingID string) error {
	const query = `
UPDATE gl_postings
SET is_reversed = TRUE,
    reversal_posting_id = $3
WHERE institution_id = $1
  AND id = $2
  AND is_reversed = FALSE`

	result, err := r.db.ExecContext(ctx, query, institutionID, id, reversalPostingID)
	if err != nil {
		return fmt.Errorf("mark posting reversed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark posting reversed rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, institutionID, id); err != nil {
			return err
		}
		return commons.ErrAlreadyReversed
	}
	return nil
}

func (r *PostingRepository) ListIncomplete(ctx context.Context) ([]domain.GLPosting, error) {
	query := selectPosting + `
WHERE status = 'PENDING'
ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list incomplete postings: %w", err)
	}
	defer rows.Close()

	return collectPostings(rows)
}

func (r *PostingRepository) RollBack(ctx context.Context, id string) error {
	const query = `
UPDATE gl_postings
SET status = 'ROLLED_BACK'
WHERE id = $1 AND status = 'PENDING'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("roll back posting: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("roll back posting rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrInvalidStateTransition
	}
	return nil
}

func (r *PostingRepository) Totals(ctx context.Context, institutionID string) (decimal.Decimal, decimal.Decimal, error) {
	const query = `
SELECT COALESCE(SUM(debit_amount), 0),
       COALESCE(SUM(credit_amount), 0)
FROM gl_postings
WHERE institution_id = $1 AND status = 'POSTED'`

	var debits, credits decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, institutionID).Scan(&debits, &credits); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("posting totals: %w", err)
	}
	return debits, credits, nil
}

func scanPosting(scanner rowScanner) (domain.GLPosting, error) {
	var (
		posting    domain.GLPosting
		reversalID sql.NullString
	)

	if err := scanner.Scan(
		&posting.ID,
		&posting.InstitutionID,
		&posting.TransactionID,
		&posting.DebitAccountNumber,
		&posting.DebitAmount,
		&posting.CreditAccountNumber,
		&posting.CreditAmount,
		&posting.Currency,
		&posting.Narration,
		&posting.ValueDate,
		&posting.Status,
		&posting.IsReversed,
		&reversalID,
		&posting.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.GLPosting{}, err
		}
		return domain.GLPosting{}, fmt.Errorf("scan posting: %w", err)
	}

	posting.ReversalPostingID = stringPtr(reversalID)
	return posting, nil
}

func collectPostings(rows *sql.Rows) ([]domain.GLPosting, error) {
	var postings []domain.GLPosting
	for rows.Next() {
		posting, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postings: %w", err)
	}
	return postings, nil
}

var _ repo_interfaces.PostingRepository = (*PostingRepository)(nil)
