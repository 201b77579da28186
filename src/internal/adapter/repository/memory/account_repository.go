package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	store *Store
}

func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := accountKey(account.InstitutionID, account.AccountNumber)
	if _, exists := r.store.accounts[key]; exists {
		return domain.Account{}, fmt.Errorf("account %s already exists", account.AccountNumber)
	}

	now := time.Now().UTC()
	account.Version = 1
	account.CreatedAt = now
	account.UpdatedAt = now
	r.store.accounts[key] = account
	return account, nil
}

func (r *AccountRepository) GetByAccountNumber(ctx context.Context, institutionID string, accountNumber string) (domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, exists := r.store.accounts[accountKey(institutionID, accountNumber)]
	if !exists {
		return domain.Account{}, commons.ErrRecordNotFound
	}
	return account, nil
}

func (r *AccountRepository) Debit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	key := accountKey(institutionID, accountNumber)
	lock := r.store.accountLock(key)
	lock.Lock()
	defer lock.Unlock()

	return r.store.debitLocked(key, amount)
}

func (r *AccountRepository) Credit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	key := accountKey(institutionID, accountNumber)
	lock := r.store.accountLock(key)
	lock.Lock()
	defer lock.Unlock()

	return r.store.creditLocked(key, amount)
}

func (r *AccountRepository) PlaceHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	key := accountKey(institutionID, accountNumber)
	lock := r.store.accountLock(key)
	lock.Lock()
	defer lock.Unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, exists := r.store.accounts[key]
	if !exists {
		return commons.ErrRecordNotFound
	}
	if !account.Status.CanDebit() {
		return statusMutationError(account.Status)
	}
	if !account.CoversDebit(amount) {
		return commons.ErrInsufficientFunds
	}

	account.HoldBalance = account.HoldBalance.Add(amount)
	account.Version++
	account.UpdatedAt = time.Now().UTC()
	r.store.accounts[key] = account
	return nil
}

func (r *AccountRepository) ReleaseHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	key := accountKey(institutionID, accountNumber)
	lock := r.store.accountLock(key)
	lock.Lock()
	defer lock.Unlock()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, exists := r.store.accounts[key]
	if !exists {
		return commons.ErrRecordNotFound
	}

	released := decimal.Min(amount, account.HoldBalance)
	account.HoldBalance = account.HoldBalance.Sub(released)
	account.Version++
	account.UpdatedAt = time.Now().UTC()
	r.store.accounts[key] = account
	return nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, institutionID string, accountNumber string, from domain.AccountStatus, to domain.AccountStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := accountKey(institutionID, accountNumber)
	account, exists := r.store.accounts[key]
	if !exists {
		return commons.ErrRecordNotFound
	}
	if account.Status != from {
		return commons.ErrInvalidStateTransition
	}

	account.Status = to
	account.Version++
	account.UpdatedAt = time.Now().UTC()
	r.store.accounts[key] = account
	return nil
}

// debitLocked applies a guarded debit. The caller must hold the account
// lock.
func (s *Store) debitLocked(key string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[key]
	if !exists {
		return commons.ErrRecordNotFound
	}
	if !account.Status.CanDebit() {
		return statusMutationError(account.Status)
	}
	if !account.CoversDebit(amount) {
		return commons.ErrInsufficientFunds
	}

	account.CurrentBalance = account.CurrentBalance.Sub(amount)
	account.LedgerBalance = account.LedgerBalance.Sub(amount)
	account.Version++
	account.UpdatedAt = time.Now().UTC()
	s.accounts[key] = account
	return nil
}

// creditLocked applies a guarded credit. The caller must hold the account
// lock.
func (s *Store) creditLocked(key string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[key]
	if !exists {
		return commons.ErrRecordNotFound
	}
	if !account.Status.CanCredit() {
		return statusMutationError(account.Status)
	}

	account.CurrentBalance = account.CurrentBalance.Add(amount)
	account.LedgerBalance = account.LedgerBalance.Add(amount)
	account.Version++
	account.UpdatedAt = time.Now().UTC()
	s.accounts[key] = account
	return nil
}

func statusMutationError(status domain.AccountStatus) error {
	switch status {
	case domain.AccountStatusClosed:
		return commons.ErrAccountClosed
	case domain.AccountStatusFrozen:
		return commons.ErrAccountFrozen
	default:
		return commons.ErrAccountNotActive
	}
}

var _ repo_interfaces.AccountRepository = (*AccountRepository)(nil)
