package memory

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type DisputeRepository struct {
	store *Store
}

func NewDisputeRepository(store *Store) *DisputeRepository {
	return &DisputeRepository{store: store}
}

func (r *DisputeRepository) Create(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	dispute.CreatedAt = now
	dispute.UpdatedAt = now
	r.store.disputes[dispute.ID] = dispute
	return dispute, nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.Dispute, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	dispute, exists := r.store.disputes[id]
	if !exists || dispute.InstitutionID != institutionID {
		return domain.Dispute{}, commons.ErrRecordNotFound
	}
	return dispute, nil
}

func (r *DisputeRepository) GetOpenByTransaction(ctx context.Context, institutionID string, transactionID string) (domain.Dispute, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, dispute := range r.store.disputes {
		if dispute.InstitutionID != institutionID || dispute.TransactionID != transactionID {
			continue
		}
		if dispute.Status == domain.DisputeStatusOpen || dispute.Status == domain.DisputeStatusUnderInvestigation {
			return dispute, nil
		}
	}
	return domain.Dispute{}, commons.ErrRecordNotFound
}

func (r *DisputeRepository) Update(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.disputes[dispute.ID]; !exists {
		return domain.Dispute{}, commons.ErrRecordNotFound
	}

	dispute.UpdatedAt = time.Now().UTC()
	r.store.disputes[dispute.ID] = dispute
	return dispute, nil
}

var _ repo_interfaces.DisputeRepository = (*DisputeRepository)(nil)
