package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
)

func TestCreateAccountRejectsDuplicateNumber(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("0"))

	_, err := f.accounts.CreateAccount(context.Background(), models.CreateAccountRequest{
		InstitutionID: testInstitution,
		CustomerID:    "CUST-2",
		AccountNumber: "ACC-A",
		Currency:      "USD",
	})
	if err == nil {
		t.Fatal("expected error for duplicate account number")
	}
}

func TestCreateAccountValidatesCustomFields(t *testing.T) {
	policy := defaultPolicy()
	policy.AccountCustomFields = domain.CustomFieldSet{
		SchemaVersion: 1,
		Fields: []domain.CustomFieldSpec{
			{Name: "branchCode", Type: domain.CustomFieldTypeString, Required: true},
			{Name: "openedOn", Type: domain.CustomFieldTypeDate},
		},
	}
	f := newLedgerFixture(t, policy)

	_, err := f.accounts.CreateAccount(context.Background(), models.CreateAccountRequest{
		InstitutionID: testInstitution,
		CustomerID:    "CUST-1",
		AccountNumber: "ACC-A",
		Currency:      "USD",
		CustomFields:  domain.CustomFields{"openedOn": "not-a-date"},
	})
	if err == nil {
		t.Fatal("expected custom field validation error")
	}

	_, err = f.accounts.CreateAccount(context.Background(), models.CreateAccountRequest{
		InstitutionID: testInstitution,
		CustomerID:    "CUST-1",
		AccountNumber: "ACC-A",
		Currency:      "USD",
		CustomFields:  domain.CustomFields{"branchCode": "001", "openedOn": "2026-08-01"},
	})
	if err != nil {
		t.Fatalf("create with valid custom fields: %v", err)
	}
}

func TestAvailableBalanceIsCurrentMinusHold(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))

	if err := f.accounts.PlaceHold(context.Background(), testInstitution, "ACC-A", dec("40.00")); err != nil {
		t.Fatalf("place hold: %v", err)
	}

	balances := f.balance(t, "ACC-A")
	assertDecimal(t, "current", balances.CurrentBalance, dec("100.00"))
	assertDecimal(t, "hold", balances.HoldBalance, dec("40.00"))
	assertDecimal(t, "available", balances.AvailableBalance, dec("60.00"))

	// The hold reserves funds: a debit beyond available fails even though
	// the current balance covers it.
	err := f.accounts.Debit(context.Background(), testInstitution, "ACC-A", dec("70.00"))
	if !errors.Is(err, commons.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if err := f.accounts.ReleaseHold(context.Background(), testInstitution, "ACC-A", dec("40.00")); err != nil {
		t.Fatalf("release hold: %v", err)
	}
	if err := f.accounts.Debit(context.Background(), testInstitution, "ACC-A", dec("70.00")); err != nil {
		t.Fatalf("debit after release: %v", err)
	}
}

func TestOverdraftPolicy(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	if _, err := f.accounts.CreateAccount(context.Background(), models.CreateAccountRequest{
		InstitutionID:    testInstitution,
		CustomerID:       "CUST-1",
		AccountNumber:    "ACC-OD",
		Currency:         "USD",
		InitialDeposit:   dec("50.00"),
		OverdraftLimit:   dec("100.00"),
		OverdraftAllowed: true,
	}); err != nil {
		t.Fatalf("create overdraft account: %v", err)
	}

	if err := f.accounts.Debit(context.Background(), testInstitution, "ACC-OD", dec("120.00")); err != nil {
		t.Fatalf("debit within overdraft: %v", err)
	}
	assertDecimal(t, "negative balance", f.balance(t, "ACC-OD").CurrentBalance, dec("-70.00"))

	err := f.accounts.Debit(context.Background(), testInstitution, "ACC-OD", dec("40.00"))
	if !errors.Is(err, commons.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds past the limit, got %v", err)
	}
}

func TestFrozenAccountRejectsMutation(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))

	if err := f.accounts.UpdateStatus(context.Background(), testInstitution, "ACC-A", domain.AccountStatusFrozen); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	if err := f.accounts.Debit(context.Background(), testInstitution, "ACC-A", dec("10.00")); !errors.Is(err, commons.ErrAccountFrozen) {
		t.Fatalf("expected ErrAccountFrozen on debit, got %v", err)
	}
	if err := f.accounts.Credit(context.Background(), testInstitution, "ACC-A", dec("10.00")); !errors.Is(err, commons.ErrAccountFrozen) {
		t.Fatalf("expected ErrAccountFrozen on credit, got %v", err)
	}
}

func TestAccountStatusTransitions(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("0"))

	// FROZEN cannot go DORMANT; it reopens or closes.
	if err := f.accounts.UpdateStatus(context.Background(), testInstitution, "ACC-A", domain.AccountStatusFrozen); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if err := f.accounts.UpdateStatus(context.Background(), testInstitution, "ACC-A", domain.AccountStatusDormant); !errors.Is(err, commons.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if err := f.accounts.UpdateStatus(context.Background(), testInstitution, "ACC-A", domain.AccountStatusClosed); err != nil {
		t.Fatalf("close: %v", err)
	}

	// CLOSED is terminal.
	if err := f.accounts.UpdateStatus(context.Background(), testInstitution, "ACC-A", domain.AccountStatusActive); !errors.Is(err, commons.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition reopening closed account, got %v", err)
	}
}
