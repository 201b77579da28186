package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
)

func TestPostMovesBothBalances(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("50.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))

	posting, err := f.postings.Post(context.Background(), service_interfaces.PostRequest{
		InstitutionID:       testInstitution,
		TransactionID:       "tx-1",
		DebitAccountNumber:  "ACC-A",
		CreditAccountNumber: "ACC-B",
		Amount:              dec("12.34"),
		Currency:            "USD",
		Narration:           "test movement",
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if posting.Status != domain.PostingStatusPosted {
		t.Fatalf("expected POSTED, got %s", posting.Status)
	}
	if !posting.Balanced() {
		t.Fatal("posting is not balanced")
	}

	assertDecimal(t, "debit balance", f.balance(t, "ACC-A").CurrentBalance, dec("37.66"))
	assertDecimal(t, "credit balance", f.balance(t, "ACC-B").CurrentBalance, dec("12.34"))

	created := f.publisher.EventsFor(domain.TopicPostingCreated)
	if len(created) != 1 {
		t.Fatalf("expected one posting.created event, got %d", len(created))
	}
}

func TestPostRejectsSameAccount(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	_, err := f.postings.Post(context.Background(), service_interfaces.PostRequest{
		InstitutionID:       testInstitution,
		TransactionID:       "tx-1",
		DebitAccountNumber:  "ACC-A",
		CreditAccountNumber: "ACC-A",
		Amount:              dec("10.00"),
		Currency:            "USD",
	})
	if err == nil {
		t.Fatal("expected error for same debit and credit account")
	}
}

func TestPostFailedCreditLeavesNoTrace(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("50.00"))

	_, err := f.postings.Post(context.Background(), service_interfaces.PostRequest{
		InstitutionID:       testInstitution,
		TransactionID:       "tx-1",
		DebitAccountNumber:  "ACC-A",
		CreditAccountNumber: "ACC-MISSING",
		Amount:              dec("10.00"),
		Currency:            "USD",
	})
	if err == nil {
		t.Fatal("expected error for missing credit account")
	}

	assertDecimal(t, "debit balance untouched", f.balance(t, "ACC-A").CurrentBalance, dec("50.00"))

	debits, credits, totalsErr := f.postingRepo.Totals(context.Background(), testInstitution)
	if totalsErr != nil {
		t.Fatalf("totals: %v", totalsErr)
	}
	assertDecimal(t, "no posted debits", debits, dec("0"))
	assertDecimal(t, "no posted credits", credits, dec("0"))
}

func TestPostBlockedByLockedPeriod(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("50.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))

	valueDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if _, err := f.lockPeriodRepo.Create(context.Background(), domain.LedgerLockPeriod{
		ID:            "period-1",
		InstitutionID: testInstitution,
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Locked:        true,
		LockedBy:      "SUP-1",
	}); err != nil {
		t.Fatalf("seed lock period: %v", err)
	}

	_, err := f.postings.Post(context.Background(), service_interfaces.PostRequest{
		InstitutionID:       testInstitution,
		TransactionID:       "tx-1",
		DebitAccountNumber:  "ACC-A",
		CreditAccountNumber: "ACC-B",
		Amount:              dec("10.00"),
		Currency:            "USD",
		ValueDate:           valueDate,
	})
	if !errors.Is(err, commons.ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked, got %v", err)
	}
}

func TestPostBypassesLockWithUnlockGrant(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("50.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))

	valueDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if _, err := f.lockPeriodRepo.Create(context.Background(), domain.LedgerLockPeriod{
		ID:            "period-1",
		InstitutionID: testInstitution,
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Locked:        true,
		LockedBy:      "SUP-1",
	}); err != nil {
		t.Fatalf("seed lock period: %v", err)
	}
	if _, err := f.approvalRepo.Create(context.Background(), domain.Approval{
		ID:            "approval-1",
		InstitutionID: testInstitution,
		ReferenceType: domain.ApprovalReferencePeriodUnlock,
		ReferenceID:   "period-1",
		MakerID:       "OPS-1",
		Status:        domain.ApprovalStatusApproved,
	}); err != nil {
		t.Fatalf("seed approval: %v", err)
	}

	// A grant for a different period does not open the door.
	if _, err := f.approvalRepo.Create(context.Background(), domain.Approval{
		ID:            "approval-other",
		InstitutionID: testInstitution,
		ReferenceType: domain.ApprovalReferencePeriodUnlock,
		ReferenceID:   "period-other",
		MakerID:       "OPS-1",
		Status:        domain.ApprovalStatusApproved,
	}); err != nil {
		t.Fatalf("seed mismatched approval: %v", err)
	}
	_, err := f.postings.Post(context.Background(), service_interfaces.PostRequest{
		InstitutionID:         testInstitution,
		TransactionID:         "tx-1",
		DebitAccountNumber:    "ACC-A",
		CreditAccountNumber:   "ACC-B",
		Amount:                dec("10.00"),
		Currency:              "USD",
		ValueDate:             valueDate,
		UnlockGrantApprovalID: "approval-other",
	})
	if !errors.Is(err, commons.ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked for mismatched grant, got %v", err)
	}

	posting, err := f.postings.Post(context.Background(), service_interfaces.PostRequest{
		InstitutionID:         testInstitution,
		TransactionID:         "tx-1",
		DebitAccountNumber:    "ACC-A",
		CreditAccountNumber:   "ACC-B",
		Amount:                dec("10.00"),
		Currency:              "USD",
		ValueDate:             valueDate,
		UnlockGrantApprovalID: "approval-1",
	})
	if err != nil {
		t.Fatalf("post with unlock grant: %v", err)
	}
	if posting.Status != domain.PostingStatusPosted {
		t.Fatalf("expected POSTED, got %s", posting.Status)
	}
}

func TestRecoverIncompleteRollsBackPending(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	f.store.SeedPosting(domain.GLPosting{
		ID:                  "posting-stuck",
		InstitutionID:       testInstitution,
		TransactionID:       "tx-crashed",
		DebitAccountNumber:  "ACC-A",
		DebitAmount:         dec("10.00"),
		CreditAccountNumber: "ACC-B",
		CreditAmount:        dec("10.00"),
		Currency:            "USD",
		Status:              domain.PostingStatusPending,
	})

	recovered, err := f.postings.RecoverIncomplete(context.Background())
	if err != nil {
		t.Fatalf("recover incomplete: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected 1 recovered posting, got %d", recovered)
	}

	posting, err := f.postingRepo.GetByID(context.Background(), testInstitution, "posting-stuck")
	if err != nil {
		t.Fatalf("get posting: %v", err)
	}
	if posting.Status != domain.PostingStatusRolledBack {
		t.Fatalf("expected ROLLED_BACK, got %s", posting.Status)
	}

	remaining, err := f.postingRepo.ListIncomplete(context.Background())
	if err != nil {
		t.Fatalf("list incomplete: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no incomplete postings, got %d", len(remaining))
	}
}
