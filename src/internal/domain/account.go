package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusDormant   AccountStatus = "DORMANT"
	AccountStatusFrozen    AccountStatus = "FROZEN"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
	AccountStatusClosed    AccountStatus = "CLOSED"
)

var accountStatusTransitions = map[AccountStatus][]AccountStatus{
	AccountStatusActive:    {AccountStatusDormant, AccountStatusFrozen, AccountStatusSuspended, AccountStatusClosed},
	AccountStatusDormant:   {AccountStatusActive, AccountStatusFrozen, AccountStatusSuspended, AccountStatusClosed},
	AccountStatusFrozen:    {AccountStatusActive, AccountStatusClosed},
	AccountStatusSuspended: {AccountStatusActive, AccountStatusClosed},
	AccountStatusClosed:    {},
}

func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	for _, allowed := range accountStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanDebit reports whether funds may leave the account in this status.
func (s AccountStatus) CanDebit() bool {
	return s == AccountStatusActive || s == AccountStatusDormant
}

// CanCredit reports whether funds may enter the account in this status.
// Frozen, suspended and closed accounts reject all balance mutation.
func (s AccountStatus) CanCredit() bool {
	return s == AccountStatusActive || s == AccountStatusDormant
}

// Account balances are mutated only by the posting engine; callers never
// write them directly. Version backs optimistic concurrency control on
// balance updates.
type Account struct {
	ID               string
	InstitutionID    string
	CustomerID       string
	AccountNumber    string
	Currency         string
	CurrentBalance   decimal.Decimal
	HoldBalance      decimal.Decimal
	LedgerBalance    decimal.Decimal
	OverdraftLimit   decimal.Decimal
	OverdraftAllowed bool
	Status           AccountStatus
	Version          int64
	CustomFields     CustomFields
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AvailableBalance is always derived, never stored independently, so the
// available = current - hold invariant cannot drift.
func (a Account) AvailableBalance() decimal.Decimal {
	return a.CurrentBalance.Sub(a.HoldBalance)
}

// CoversDebit reports whether a debit of amount would keep the account
// within its overdraft policy.
func (a Account) CoversDebit(amount decimal.Decimal) bool {
	remaining := a.AvailableBalance().Sub(amount)
	if a.OverdraftAllowed {
		return remaining.GreaterThanOrEqual(a.OverdraftLimit.Neg())
	}
	return remaining.GreaterThanOrEqual(decimal.Zero)
}

type Balances struct {
	AccountNumber    string
	Currency         string
	CurrentBalance   decimal.Decimal
	AvailableBalance decimal.Decimal
	HoldBalance      decimal.Decimal
	LedgerBalance    decimal.Decimal
}

func (a Account) Balances() Balances {
	return Balances{
		AccountNumber:    a.AccountNumber,
		Currency:         a.Currency,
		CurrentBalance:   a.CurrentBalance,
		AvailableBalance: a.AvailableBalance(),
		HoldBalance:      a.HoldBalance,
		LedgerBalance:    a.LedgerBalance,
	}
}
