package memory

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type StaffRepository struct {
	store *Store
}

func NewStaffRepository(store *Store) *StaffRepository {
	return &StaffRepository{store: store}
}

func (r *StaffRepository) Create(ctx context.Context, staff domain.Staff) (domain.Staff, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	staff.CreatedAt = now
	staff.UpdatedAt = now
	r.store.staff[referenceKey(staff.InstitutionID, staff.StaffID)] = staff
	return staff, nil
}

func (r *StaffRepository) GetByStaffID(ctx context.Context, institutionID string, staffID string) (domain.Staff, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	staff, exists := r.store.staff[referenceKey(institutionID, staffID)]
	if !exists {
		return domain.Staff{}, commons.ErrRecordNotFound
	}
	return staff, nil
}

var _ repo_interfaces.StaffRepository = (*StaffRepository)(nil)
