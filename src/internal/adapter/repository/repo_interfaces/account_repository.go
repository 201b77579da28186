package repo_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountRepository owns account rows. Every balance mutation is a
// conditional atomic read-modify-write; implementations return
// commons.ErrContention when an optimistic update loses its version race
// and the caller's bounded retry should decide what to do next.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	GetByAccountNumber(ctx context.Context, institutionID string, accountNumber string) (domain.Account, error)

	// Debit moves amount out of the account, guarded by status, available
	// balance and overdraft policy.
	Debit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error
	// Credit moves amount into the account, guarded by status.
	Credit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error

	PlaceHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error
	ReleaseHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error

	// UpdateStatus applies a status transition conditionally on the current
	// status so concurrent transitions cannot skip the state machine.
	UpdateStatus(ctx context.Context, institutionID string, accountNumber string, from domain.AccountStatus, to domain.AccountStatus) error
}
