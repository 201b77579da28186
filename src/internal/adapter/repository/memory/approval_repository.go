package memory

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type ApprovalRepository struct {
	store *Store
}

func NewApprovalRepository(store *Store) *ApprovalRepository {
	return &ApprovalRepository{store: store}
}

func (r *ApprovalRepository) Create(ctx context.Context, approval domain.Approval) (domain.Approval, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	approval.CreatedAt = now
	approval.UpdatedAt = now
	r.store.approvals[approval.ID] = approval
	return approval, nil
}

func (r *ApprovalRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.Approval, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	approval, exists := r.store.approvals[id]
	if !exists || approval.InstitutionID != institutionID {
		return domain.Approval{}, commons.ErrRecordNotFound
	}
	return approval, nil
}

func (r *ApprovalRepository) GetLatestByReference(ctx context.Context, institutionID string, referenceType domain.ApprovalReferenceType, referenceID string) (domain.Approval, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var latest domain.Approval
	found := false
	for _, approval := range r.store.approvals {
		if approval.InstitutionID != institutionID || approval.ReferenceType != referenceType || approval.ReferenceID != referenceID {
			continue
		}
		if !found || approval.CreatedAt.After(latest.CreatedAt) {
			latest = approval
			found = true
		}
	}
	if !found {
		return domain.Approval{}, commons.ErrRecordNotFound
	}
	return latest, nil
}

func (r *ApprovalRepository) UpdateStatus(ctx context.Context, institutionID string, id string, from domain.ApprovalStatus, to domain.ApprovalStatus, checkerID *string, note *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	approval, exists := r.store.approvals[id]
	if !exists || approval.InstitutionID != institutionID {
		return commons.ErrRecordNotFound
	}
	if approval.Status != from {
		return commons.ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	approval.Status = to
	if checkerID != nil {
		approval.CheckerID = checkerID
	}
	if note != nil {
		approval.DecisionNote = note
	}
	if to == domain.ApprovalStatusApproved || to == domain.ApprovalStatusRejected {
		approval.DecidedAt = &now
	}
	approval.UpdatedAt = now
	r.store.approvals[id] = approval
	return nil
}

var _ repo_interfaces.ApprovalRepository = (*ApprovalRepository)(nil)
