package repo_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type PostingRepository interface {
	// ApplyPosting writes the posting row and both balance movements as one
	// atomic unit. Partial application must be impossible: either the row
	// lands POSTED with both accounts updated, or nothing is visible.
	// Account updates are applied in ascending account-number order.
	ApplyPosting(ctx context.Context, posting domain.GLPosting) (domain.GLPosting, error)

	GetByID(ctx context.Context, institutionID string, id string) (domain.GLPosting, error)
	ListByTransaction(ctx context.Context, institutionID string, transactionID string) ([]domain.GLPosting, error)

	// MarkReversed flags the original posting and links the compensating
	// posting. The original row is otherwise immutable.
	MarkReversed(ctx context.Context, institutionID string, id string, reversalPostingID string) error

	// ListIncomplete returns rows left PENDING by a crash between the two
	// write phases, for the recovery sweep.
	ListIncomplete(ctx context.Context) ([]domain.GLPosting, error)
	RollBack(ctx context.Context, id string) error

	// Totals returns institution-wide debit and credit sums over POSTED
	// rows, for reconciliation.
	Totals(ctx context.Context, institutionID string) (debits decimal.Decimal, credits decimal.Decimal, err error)
}
