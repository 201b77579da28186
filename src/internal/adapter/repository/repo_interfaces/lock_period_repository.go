package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type LockPeriodRepository interface {
	Create(ctx context.Context, period domain.LedgerLockPeriod) (domain.LedgerLockPeriod, error)
	GetByID(ctx context.Context, institutionID string, id string) (domain.LedgerLockPeriod, error)

	// FindLockedCovering returns the locked period containing the date, or
	// commons.ErrRecordNotFound when the date is open for posting.
	FindLockedCovering(ctx context.Context, institutionID string, date time.Time) (domain.LedgerLockPeriod, error)

	Unlock(ctx context.Context, institutionID string, id string, staffID string, reason string) error
}
