package memory

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type LockPeriodRepository struct {
	store *Store
}

func NewLockPeriodRepository(store *Store) *LockPeriodRepository {
	return &LockPeriodRepository{store: store}
}

func (r *LockPeriodRepository) Create(ctx context.Context, period domain.LedgerLockPeriod) (domain.LedgerLockPeriod, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now
	r.store.lockPeriods[period.ID] = period
	return period, nil
}

func (r *LockPeriodRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.LedgerLockPeriod, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	period, exists := r.store.lockPeriods[id]
	if !exists || period.InstitutionID != institutionID {
		return domain.LedgerLockPeriod{}, commons.ErrRecordNotFound
	}
	return period, nil
}

func (r *LockPeriodRepository) FindLockedCovering(ctx context.Context, institutionID string, date time.Time) (domain.LedgerLockPeriod, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, period := range r.store.lockPeriods {
		if period.InstitutionID == institutionID && period.Locked && period.Contains(date) {
			return period, nil
		}
	}
	return domain.LedgerLockPeriod{}, commons.ErrRecordNotFound
}

func (r *LockPeriodRepository) Unlock(ctx context.Context, institutionID string, id string, staffID string, reason string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	period, exists := r.store.lockPeriods[id]
	if !exists || period.InstitutionID != institutionID {
		return commons.ErrRecordNotFound
	}

	period.Locked = false
	period.UnlockedBy = &staffID
	period.UnlockReason = &reason
	period.UpdatedAt = time.Now().UTC()
	r.store.lockPeriods[id] = period
	return nil
}

var _ repo_interfaces.LockPeriodRepository = (*LockPeriodRepository)(nil)
