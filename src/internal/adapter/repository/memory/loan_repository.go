package memory

import (
	"context"
	"sort"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type LoanRepository struct {
	store *Store
}

func NewLoanRepository(store *Store) *LoanRepository {
	return &LoanRepository{store: store}
}

func (r *LoanRepository) Create(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	loan.CreatedAt = now
	loan.UpdatedAt = now
	r.store.loans[loan.ID] = loan
	return loan, nil
}

func (r *LoanRepository) GetByID(ctx context.Context, institutionID string, id string) (domain.Loan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	loan, exists := r.store.loans[id]
	if !exists || loan.InstitutionID != institutionID {
		return domain.Loan{}, commons.ErrRecordNotFound
	}
	return loan, nil
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, institutionID string, id string, status domain.LoanStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	loan, exists := r.store.loans[id]
	if !exists || loan.InstitutionID != institutionID {
		return commons.ErrRecordNotFound
	}

	loan.Status = status
	loan.UpdatedAt = time.Now().UTC()
	r.store.loans[id] = loan
	return nil
}

type ScheduleRepository struct {
	store *Store
}

func NewScheduleRepository(store *Store) *ScheduleRepository {
	return &ScheduleRepository{store: store}
}

func (r *ScheduleRepository) CreateEntries(ctx context.Context, entries []domain.RepaymentScheduleEntry) ([]domain.RepaymentScheduleEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	for i := range entries {
		entries[i].CreatedAt = now
		entries[i].UpdatedAt = now
	}
	if len(entries) > 0 {
		loanID := entries[0].LoanID
		r.store.schedules[loanID] = append(r.store.schedules[loanID], entries...)
	}
	return entries, nil
}

func (r *ScheduleRepository) ListByLoan(ctx context.Context, loanID string) ([]domain.RepaymentScheduleEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	entries := make([]domain.RepaymentScheduleEntry, len(r.store.schedules[loanID]))
	copy(entries, r.store.schedules[loanID])
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].InstallmentNumber < entries[j].InstallmentNumber
	})
	return entries, nil
}

func (r *ScheduleRepository) UpdateEntry(ctx context.Context, entry domain.RepaymentScheduleEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	entries := r.store.schedules[entry.LoanID]
	for i := range entries {
		if entries[i].ID == entry.ID {
			entry.UpdatedAt = time.Now().UTC()
			entries[i] = entry
			return nil
		}
	}
	return commons.ErrRecordNotFound
}

var _ repo_interfaces.LoanRepository = (*LoanRepository)(nil)
var _ repo_interfaces.ScheduleRepository = (*ScheduleRepository)(nil)
