package memory

import (
	"context"
	"sort"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type PostingRepository struct {
	store *Store
}

func NewPostingRepository(store *Store) *PostingRepository {
	return &PostingRepository{store: store}
}

func (r *PostingRepository) ApplyPosting(ctx context.Context, posting domain.GLPosting) (domain.GLPosting, error) {
	debitKey := accountKey(posting.InstitutionID, posting.DebitAccountNumber)
	creditKey := accountKey(posting.InstitutionID, posting.CreditAccountNumber)

	unlock := r.store.lockAccounts(debitKey, creditKey)
	defer unlock()

	if err := r.store.debitLocked(debitKey, posting.DebitAmount); err != nil {
		return domain.GLPosting{}, err
	}
	if err := r.store.creditLocked(creditKey, posting.CreditAmount); err != nil {
		// Undo the debit so the failed posting leaves no trace. Both account
		// locks are still held, so nothing can observe the intermediate state.
		_ = r.store.creditLocked(debitKey, posting.DebitAmount)
		return domain.GLPosting{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	posting.Status = domain.PostingStatusPosted
	posting.CreatedAt = time.Now().UTC()
	r.store.postings[posting.ID] = posting
	return posting, nil
}

func (r *PostingRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.GLPosting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	posting, exists := r.store.postings[id]
	if !exists || posting.InstitutionID != institutionID {
		return domain.GLPosting{}, commons.ErrRecordNotFound
	}
	return posting, nil
}

func (r *PostingRepository) ListByTransaction(ctx context.Context, institutionID string, transactionID string) ([]domain.GLPosting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []domain.GLPosting
	for _, posting := range r.store.postings {
		if posting.InstitutionID == institutionID && posting.TransactionID == transactionID {
			result = append(result, posting)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *PostingRepository) MarkReversed(ctx context.Context, institutionID string, id string, reversalPostingID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	posting, exists := r.store.postings[id]
	if !exists || posting.InstitutionID != institutionID {
		return commons.ErrRecordNotFound
	}
	if posting.IsReversed {
		return commons.ErrAlreadyReversed
	}

	posting.IsReversed = true
	posting.ReversalPostingID = &reversalPostingID
	r.store.postings[id] = posting
	return nil
}

func (r *PostingRepository) ListIncomplete(ctx context.Context) ([]domain.GLPosting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []domain.GLPosting
	for _, posting := range r.store.postings {
		if posting.Status == domain.PostingStatusPending {
			result = append(result, posting)
		}
	}
	return result, nil
}

func (r *PostingRepository) RollBack(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	posting, exists := r.store.postings[id]
	if !exists {
		return commons.ErrRecordNotFound
	}
	if posting.Status != domain.PostingStatusPending {
		return commons.ErrInvalidStateTransition
	}

	posting.Status = domain.PostingStatusRolledBack
	r.store.postings[id] = posting
	return nil
}

func (r *PostingRepository) Totals(ctx context.Context, institutionID string) (decimal.Decimal, decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	debits := decimal.Zero
	credits := decimal.Zero
	for _, posting := range r.store.postings {
		if posting.InstitutionID != institutionID || posting.Status != domain.PostingStatusPosted {
			continue
		}
		debits = debits.Add(posting.DebitAmount)
		credits = credits.Add(posting.CreditAmount)
	}
	return debits, credits, nil
}

var _ repo_interfaces.PostingRepository = (*PostingRepository)(nil)
