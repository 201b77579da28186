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

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	const query = `
INSERT INTO accounts (
	id,
	institution_id,
	customer_id,
	account_number,
	currency,
	current_balance,
	hold_balance,
	ledger_balance,
	overdraft_limit,
	overdraft_allowed,
	status,
	version,
	custom_fields
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12)
RETURNING created_at, updated_at`

	fieldsJSON, err := customFieldsJSON(account.CustomFields)
	if err != nil {
		return domain.Account{}, err
	}

	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.ID,
		account.InstitutionID,
		account.CustomerID,
		account.AccountNumber,
		account.Currency,
		account.CurrentBalance,
		account.HoldBalance,
		account.LedgerBalance,
		account.OverdraftLimit,
		account.OverdraftAllowed,
		account.Status,
		fieldsJSON,
	).Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		if uniqueViolation(err) {
			return domain.Account{}, fmt.Errorf("account %s already exists", account.AccountNumber)
		}
		logger.Error("account repository create failed", err, logger.Fields{
			"accountNumber": account.AccountNumber,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	account.Version = 1
	return account, nil
}

const selectAccount = `
SELECT id,
       institution_id,
       customer_id,
       account_number,
       currency,
       current_balance,
       hold_balance,
       ledger_balance,
       overdraft_limit,
       overdraft_allowed,
       status,
       version,
       custom_fields,
       created_at,
       updated_at
FROM accounts`

func (r *AccountRepository) GetByAccountNumber(ctx context.Context, institutionID string, accountNumber string) (domain.Account, error) {
	query := selectAccount + `
WHERE institution_id = $1 AND account_number = $2`

	return r.scanAccount(r.db.QueryRowContext(ctx, query, institutionID, accountNumber))
}

func (r *AccountRepository) scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		account   domain.Account
		rawFields []byte
	)

	if err := row.Scan(
		&account.ID,
		&account.InstitutionID,
		&account.CustomerID,
		&account.AccountNumber,
		&account.Currency,
		&account.CurrentBalance,
		&account.HoldBalance,
		&account.LedgerBalance,
		&account.OverdraftLimit,
		&account.OverdraftAllowed,
		&account.Status,
		&account.Version,
		&rawFields,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, commons.ErrRecordNotFound
		}
		return domain.Account{}, fmt.Errorf("scan account: %w", err)
	}

	fields, err := scanCustomFields(rawFields)
	if err != nil {
		return domain.Account{}, err
	}
	account.CustomFields = fields

	return account, nil
}

func (r *AccountRepository) Debit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
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

	result, err := r.db.ExecContext(ctx, query, institutionID, accountNumber, amount)
	if err != nil {
		logger.Error("account repository debit failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return fmt.Errorf("debit account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit account rows affected: %w", err)
	}
	if rows == 0 {
		return r.classifyDebitFailure(ctx, institutionID, accountNumber, amount)
	}
	return nil
}

func (r *AccountRepository) Credit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	const query = `
UPDATE accounts
SET current_balance = current_balance + $3,
    ledger_balance = ledger_balance + $3,
    version = version + 1,
    updated_at = NOW()
WHERE institution_id = $1
  AND account_number = $2
  AND status IN ('ACTIVE', 'DORMANT')`

	result, err := r.db.ExecContext(ctx, query, institutionID, accountNumber, amount)
	if err != nil {
		logger.Error("account repository credit failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return fmt.Errorf("credit account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit account rows affected: %w", err)
	}
	if rows == 0 {
		account, err := r.GetByAccountNumber(ctx, institutionID, accountNumber)
		if err != nil {
			return err
		}
		return statusMutationError(account.Status)
	}
	return nil
}

func (r *AccountRepository) PlaceHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	const query = `
UPDATE accounts
SET hold_balance = hold_balance + $3,
    version = version + 1,
    updated_at = NOW()
WHERE institution_id = $1
  AND account_number = $2
  AND status IN ('ACTIVE', 'DORMANT')
  AND (
      (overdraft_allowed AND current_balance - hold_balance - $3 >= -overdraft_limit)
      OR (NOT overdraft_allowed AND current_balance - hold_balance - $3 >= 0)
  )`

	result, err := r.db.ExecContext(ctx, query, institutionID, accountNumber, amount)
	if err != nil {
		logger.Error("account repository place hold failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return fmt.Errorf("place hold: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("place hold rows affected: %w", err)
	}
	if rows == 0 {
		return r.classifyDebitFailure(ctx, institutionID, accountNumber, amount)
	}
	return nil
}

func (r *AccountRepository) ReleaseHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	const query = `
UPDATE accounts
SET hold_balance = GREATEST(hold_balance - $3, 0),
    version = version + 1,
    updated_at = NOW()
WHERE institution_id = $1
  AND account_number = $2`

	result, err := r.db.ExecContext(ctx, query, institutionID, accountNumber, amount)
	if err != nil {
		logger.Error("account repository release hold failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return fmt.Errorf("release hold: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("release hold rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrRecordNotFound
	}
	return nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, institutionID string, accountNumber string, from domain.AccountStatus, to domain.AccountStatus) error {
	const query = `
UPDATE accounts
SET status = $4,
    version = version + 1,
    updated_at = NOW()
WHERE institution_id = $1
  AND account_number = $2
  AND status = $3`

	result, err := r.db.ExecContext(ctx, query, institutionID, accountNumber, from, to)
	if err != nil {
		logger.Error("account repository update status failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return fmt.Errorf("update account status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account status rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetByAccountNumber(ctx, institutionID, accountNumber); err != nil {
			return err
		}
		return commons.ErrInvalidStateTransition
	}
	return nil
}

// classifyDebitFailure distinguishes the reasons a guarded debit update can
// touch zero rows: missing account, blocking status, or short funds.
func (r *AccountRepository) classifyDebitFailure(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	account, err := r.GetByAccountNumber(ctx, institutionID, accountNumber)
	if err != nil {
		return err
	}
	if !account.Status.CanDebit() {
		return statusMutationError(account.Status)
	}
	if !account.CoversDebit(amount) {
		return commons.ErrInsufficientFunds
	}
	return commons.ErrContention
}

func statusMutationError(status domain.AccountStatus) error {
	switch status {
	case domain.AccountStatusClosed:
		return commons.ErrAccountClosed
	case domain.AccountStatusFrozen:
		return commons.ErrAccountFrozen
	default:
		return commons.ErrAccountNotActive
	}
}

var _ repo_interfaces.AccountRepository = (*AccountRepository)(nil)
