package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type TransactionRepository interface {
	// Create inserts a new transaction. The (institution, reference) pair is
	// unique; concurrent duplicate submissions resolve to a single winner
	// and the loser surfaces the unique violation.
	Create(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error)
	GetByID(ctx context.Context, institutionID string, id string) (domain.Transaction, error)
	GetByReference(ctx context.Context, institutionID string, reference string) (domain.Transaction, error)

	// UpdateStatus transitions conditionally on the current status and
	// returns commons.ErrInvalidStateTransition when the row is not in the
	// expected state.
	UpdateStatus(ctx context.Context, institutionID string, id string, from domain.TransactionStatus, to domain.TransactionStatus, failureReason *string) error

	// MarkReversed flags the original transaction and links its reversal.
	MarkReversed(ctx context.Context, institutionID string, id string, reversalTransactionID string) error

	// ListPendingBefore returns transactions still PENDING with a creation
	// time before the cutoff, for the expiry sweep.
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error)
}
