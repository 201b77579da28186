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

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	logger.Info("transaction repository create", logger.Fields{
		"reference":           transaction.Reference,
		"debitAccountNumber":  transaction.DebitAccountNumber,
		"creditAccountNumber": transaction.CreditAccountNumber,
		"status":              transaction.Status,
	})

	const query = `
INSERT INTO transactions (
	id,
	institution_id,
	reference,
	debit_account_number,
	credit_account_number,
	amount,
	fee,
	currency,
	credit_currency,
	type,
	category,
	status,
	narration,
	value_date,
	parent_transaction_id,
	custom_fields
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
)
RETURNING created_at, updated_at`

	fieldsJSON, err := customFieldsJSON(transaction.CustomFields)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := r.db.QueryRowContext(
		ctx,
		query,
		transaction.ID,
		transaction.InstitutionID,
		transaction.Reference,
		transaction.DebitAccountNumber,
		transaction.CreditAccountNumber,
		transaction.Amount,
		transaction.Fee,
		transaction.Currency,
		transaction.CreditCurrency,
		transaction.Type,
		transaction.Category,
		transaction.Status,
		transaction.Narration,
		transaction.ValueDate,
		nullString(transaction.ParentTransactionID),
		fieldsJSON,
	).Scan(&transaction.CreatedAt, &transaction.UpdatedAt); err != nil {
		if uniqueViolation(err) {
			return domain.Transaction{}, commons.ErrDuplicateReference
		}
		logger.Error("transaction repository create failed", err, logger.Fields{
			"reference": transaction.Reference,
		})
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	return transaction, nil
}

const selectTransaction = `
SELECT id,
       institution_id,
       reference,
       debit_account_number,
       credit_account_number,
       amount,
       fee,
       currency,
       credit_currency,
       type,
       category,
       status,
       failure_reason,
       narration,
       value_date,
       parent_transaction_id,
       is_reversed,
       reversal_transaction_id,
       custom_fields,
       created_at,
       updated_at,
       processed_at
FROM transactions`

func (r *TransactionRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.Transaction, error) {
	query := selectTransaction + `
WHERE institution_id = $1 AND id = $2`

	return scanTransaction(r.db.QueryRowContext(ctx, query, institutionID, id))
}

func (r *TransactionRepository) GetByReference(ctx context.Context, institutionID string, reference string) (domain.Transaction, error) {
	query := selectTransaction + `
WHERE institution_id = $1 AND reference = $2`

	return scanTransaction(r.db.QueryRowContext(ctx, query, institutionID, reference))
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, institutionID string, id string, from domain.TransactionStatus, to domain.TransactionStatus, failureReason *string) error {
	const query = `
UPDATE transactions
SET status = $4,
    failure_reason = COALESCE($5, failure_reason),
    updated_at = NOW(),
    processed_at = CASE
        WHEN $4 IN ('COMPLETED', 'FAILED', 'CANCELLED') THEN NOW()
        ELSE processed_at
    END
WHERE institution_id = $1
  AND id = $2
  AND status = $3`

	result, err := r.db.ExecContext(ctx, query, institutionID, id, from, to, nullString(failureReason))
	if err != nil {
		logger.Error("transaction repository update status failed", err, logger.Fields{
			"transactionId": id,
			"status":        to,
		})
		return fmt.Errorf("update transaction status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction status rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, institutionID, id); err != nil {
			return err
		}
		return commons.ErrInvalidStateTransition
	}
	return nil
}

func (r *TransactionRepository) MarkReversed(ctx context.Context, institutionID string, id string, reversalTransactionID string) error {
	const query = `
UPDATE transactions
SET status = 'REVERSED',
    is_reversed = TRUE,
    reversal_transaction_id = $3,
    updated_at = NOW()
WHERE institution_id = $1
  AND id = $2
  AND is_reversed = FALSE
  AND status IN ('COMPLETED', 'DISPUTED')`

	result, err := r.db.ExecContext(ctx, query, institutionID, id, reversalTransactionID)
	if err != nil {
		logger.Error("transaction repository mark reversed failed", err, logger.Fields{
			"transactionId": id,
		})
		return fmt.Errorf("mark transaction reversed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark transaction reversed rows affected: %w", err)
	}
	if rows == 0 {
		transaction, err := r.GetByID(ctx, institutionID, id)
		if err != nil {
			return err
		}
		if transaction.IsReversed {
			return commons.ErrAlreadyReversed
		}
		return commons.ErrInvalidStateTransition
	}
	return nil
}

func (r *TransactionRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	query := selectTransaction + `
WHERE status = 'PENDING' AND created_at < $1
ORDER BY created_at
LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		transaction, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending transactions: %w", err)
	}
	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row *sql.Row) (domain.Transaction, error) {
	transaction, err := scanTransactionFrom(row)
	if err == sql.ErrNoRows {
		return domain.Transaction{}, commons.ErrRecordNotFound
	}
	return transaction, err
}

func scanTransactionRows(rows *sql.Rows) (domain.Transaction, error) {
	return scanTransactionFrom(rows)
}

func scanTransactionFrom(scanner rowScanner) (domain.Transaction, error) {
	var (
		transaction   domain.Transaction
		failureReason sql.NullString
		parentID      sql.NullString
		reversalID    sql.NullString
		rawFields     []byte
		processedAt   sql.NullTime
	)

	if err := scanner.Scan(
		&transaction.ID,
		&transaction.InstitutionID,
		&transaction.Reference,
		&transaction.DebitAccountNumber,
		&transaction.CreditAccountNumber,
		&transaction.Amount,
		&transaction.Fee,
		&transaction.Currency,
		&transaction.CreditCurrency,
		&transaction.Type,
		&transaction.Category,
		&transaction.Status,
		&failureReason,
		&transaction.Narration,
		&transaction.ValueDate,
		&parentID,
		&transaction.IsReversed,
		&reversalID,
		&rawFields,
		&transaction.CreatedAt,
		&transaction.UpdatedAt,
		&processedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Transaction{}, err
		}
		return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	fields, err := scanCustomFields(rawFields)
	if err != nil {
		return domain.Transaction{}, err
	}

	transaction.FailureReason = stringPtr(failureReason)
	transaction.ParentTransactionID = stringPtr(parentID)
	transaction.ReversalTransactionID = stringPtr(reversalID)
	transaction.CustomFields = fields
	transaction.ProcessedAt = timePtr(processedAt)

	return transaction, nil
}

var _ repo_interfaces.TransactionRepository = (*TransactionRepository)(nil)
