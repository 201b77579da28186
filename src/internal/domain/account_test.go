package domain_test

import (
	"testing"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

func TestAvailableBalanceDerived(t *testing.T) {
	account := domain.Account{
		CurrentBalance: decimal.RequireFromString("100.00"),
		HoldBalance:    decimal.RequireFromString("35.50"),
	}
	if !account.AvailableBalance().Equal(decimal.RequireFromString("64.50")) {
		t.Fatalf("available = %s, want 64.50", account.AvailableBalance())
	}
}

func TestCoversDebit(t *testing.T) {
	account := domain.Account{
		CurrentBalance: decimal.RequireFromString("50.00"),
		HoldBalance:    decimal.RequireFromString("10.00"),
	}

	if !account.CoversDebit(decimal.RequireFromString("40.00")) {
		t.Error("debit equal to available must be covered")
	}
	if account.CoversDebit(decimal.RequireFromString("40.01")) {
		t.Error("debit past available must not be covered without overdraft")
	}

	account.OverdraftAllowed = true
	account.OverdraftLimit = decimal.RequireFromString("100.00")
	if !account.CoversDebit(decimal.RequireFromString("140.00")) {
		t.Error("debit within overdraft limit must be covered")
	}
	if account.CoversDebit(decimal.RequireFromString("140.01")) {
		t.Error("debit past overdraft limit must not be covered")
	}
}

func TestAccountStatusTransitionTable(t *testing.T) {
	allowed := []struct {
		from, to domain.AccountStatus
	}{
		{domain.AccountStatusActive, domain.AccountStatusDormant},
		{domain.AccountStatusActive, domain.AccountStatusFrozen},
		{domain.AccountStatusDormant, domain.AccountStatusActive},
		{domain.AccountStatusFrozen, domain.AccountStatusActive},
		{domain.AccountStatusSuspended, domain.AccountStatusClosed},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct {
		from, to domain.AccountStatus
	}{
		{domain.AccountStatusClosed, domain.AccountStatusActive},
		{domain.AccountStatusFrozen, domain.AccountStatusDormant},
		{domain.AccountStatusSuspended, domain.AccountStatusFrozen},
	}
	for _, tc := range forbidden {
		if tc.from.CanTransitionTo(tc.to) {
			t.Errorf("%s -> %s should be forbidden", tc.from, tc.to)
		}
	}
}

func TestAccountStatusMutationGuards(t *testing.T) {
	if !domain.AccountStatusDormant.CanDebit() || !domain.AccountStatusDormant.CanCredit() {
		t.Error("dormant accounts still move money")
	}
	for _, status := range []domain.AccountStatus{domain.AccountStatusFrozen, domain.AccountStatusSuspended, domain.AccountStatusClosed} {
		if status.CanDebit() || status.CanCredit() {
			t.Errorf("%s must reject balance mutation", status)
		}
	}
}
