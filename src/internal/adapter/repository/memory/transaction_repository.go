package memory

import (
	"context"
	"sort"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type TransactionRepository struct {
	store *Store
}

func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) Create(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	refKey := referenceKey(transaction.InstitutionID, transaction.Reference)
	if _, exists := r.store.txByRef[refKey]; exists {
		return domain.Transaction{}, commons.ErrDuplicateReference
	}

	now := time.Now().UTC()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now
	r.store.transactions[transaction.ID] = transaction
	r.store.txByRef[refKey] = transaction.ID
	return transaction, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	transaction, exists := r.store.transactions[id]
	if !exists || transaction.InstitutionID != institutionID {
		return domain.Transaction{}, commons.ErrRecordNotFound
	}
	return transaction, nil
}

func (r *TransactionRepository) GetByReference(ctx context.Context, institutionID string, reference string) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id, exists := r.store.txByRef[referenceKey(institutionID, reference)]
	if !exists {
		return domain.Transaction{}, commons.ErrRecordNotFound
	}
	return r.store.transactions[id], nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, institutionID string, id string, from domain.TransactionStatus, to domain.TransactionStatus, failureReason *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	transaction, exists := r.store.transactions[id]
	if !exists || transaction.InstitutionID != institutionID {
		return commons.ErrRecordNotFound
	}
	if transaction.Status != from {
		return commons.ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	transaction.Status = to
	transaction.FailureReason = failureReason
	transaction.UpdatedAt = now
	if to == domain.TransactionStatusCompleted || to == domain.TransactionStatusFailed || to == domain.TransactionStatusCancelled {
		transaction.ProcessedAt = &now
	}
	r.store.transactions[id] = transaction
	return nil
}

func (r *TransactionRepository) MarkReversed(ctx context.Context, institutionID string, id string, reversalTransactionID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	transaction, exists := r.store.transactions[id]
	if !exists || transaction.InstitutionID != institutionID {
		return commons.ErrRecordNotFound
	}
	if transaction.IsReversed {
		return commons.ErrAlreadyReversed
	}

	transaction.IsReversed = true
	transaction.ReversalTransactionID = &reversalTransactionID
	transaction.Status = domain.TransactionStatusReversed
	transaction.UpdatedAt = time.Now().UTC()
	r.store.transactions[id] = transaction
	return nil
}

func (r *TransactionRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []domain.Transaction
	for _, transaction := range r.store.transactions {
		if transaction.Status == domain.TransactionStatusPending && transaction.CreatedAt.Before(cutoff) {
			result = append(result, transaction)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ repo_interfaces.TransactionRepository = (*TransactionRepository)(nil)
