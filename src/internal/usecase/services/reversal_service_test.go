package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/services"
)

func TestReverseNetsToZero(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")

	resp, err := f.reversals.Reverse(context.Background(), models.ReverseTransactionRequest{
		InstitutionID: testInstitution,
		TransactionID: original.TransactionID,
		Reason:        "posted in error",
		MakerStaffID:  "OPS-1",
	})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if resp.Data.Status != string(domain.TransactionStatusCompleted) {
		t.Fatalf("expected COMPLETED reversal, got %s", resp.Data.Status)
	}

	assertDecimal(t, "debit account restored", f.balance(t, "ACC-A").CurrentBalance, dec("100.00"))
	assertDecimal(t, "credit account restored", f.balance(t, "ACC-B").CurrentBalance, dec("0"))

	stored, err := f.transactionRepo.GetByID(context.Background(), testInstitution, original.TransactionID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if stored.Status != domain.TransactionStatusReversed || !stored.IsReversed {
		t.Fatalf("original not marked reversed: status=%s isReversed=%v", stored.Status, stored.IsReversed)
	}
	if stored.ReversalTransactionID == nil || *stored.ReversalTransactionID != resp.Data.ReversalTransactionID {
		t.Fatal("original does not link the reversal transaction")
	}

	reversed := f.publisher.EventsFor(domain.TopicTransactionReversed)
	if len(reversed) != 1 {
		t.Fatalf("expected one transaction.reversed event, got %d", len(reversed))
	}

	debits, credits, err := f.postingRepo.Totals(context.Background(), testInstitution)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	assertDecimal(t, "ledger still balanced", debits, credits)
}

func TestReverseMarksOriginalPostingsReversed(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")

	if _, err := f.reversals.Reverse(context.Background(), models.ReverseTransactionRequest{
		InstitutionID: testInstitution,
		TransactionID: original.TransactionID,
		Reason:        "posted in error",
		MakerStaffID:  "OPS-1",
	}); err != nil {
		t.Fatalf("reverse: %v", err)
	}

	postings, err := f.postingRepo.ListByTransaction(context.Background(), testInstitution, original.TransactionID)
	if err != nil {
		t.Fatalf("list postings: %v", err)
	}
	for _, posting := range postings {
		if !posting.IsReversed || posting.ReversalPostingID == nil {
			t.Fatalf("posting %s not linked to its compensating posting", posting.ID)
		}
	}
}

func TestDoubleReversalRejected(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")

	request := models.ReverseTransactionRequest{
		InstitutionID: testInstitution,
		TransactionID: original.TransactionID,
		Reason:        "posted in error",
		MakerStaffID:  "OPS-1",
	}
	if _, err := f.reversals.Reverse(context.Background(), request); err != nil {
		t.Fatalf("first reverse: %v", err)
	}

	_, err := f.reversals.Reverse(context.Background(), request)
	if !errors.Is(err, commons.ErrAlreadyReversed) {
		t.Fatalf("expected ErrAlreadyReversed, got %v", err)
	}

	assertDecimal(t, "balance unchanged by second attempt", f.balance(t, "ACC-A").CurrentBalance, dec("100.00"))
}

func TestReversePendingTransactionRejected(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	if _, err := f.transactionRepo.Create(context.Background(), domain.Transaction{
		ID:                  "tx-pending",
		InstitutionID:       testInstitution,
		Reference:           "TX-PENDING",
		DebitAccountNumber:  "ACC-A",
		CreditAccountNumber: "ACC-B",
		Amount:              dec("10.00"),
		Currency:            "USD",
		Status:              domain.TransactionStatusPending,
	}); err != nil {
		t.Fatalf("seed pending transaction: %v", err)
	}

	_, err := f.reversals.Reverse(context.Background(), models.ReverseTransactionRequest{
		InstitutionID: testInstitution,
		TransactionID: "tx-pending",
		Reason:        "too early",
		MakerStaffID:  "OPS-1",
	})
	if !errors.Is(err, commons.ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted, got %v", err)
	}
}

func TestReverseAboveThresholdRequiresApproval(t *testing.T) {
	policy := defaultPolicy()
	policy.ReversalApprovalThreshold = dec("20")
	f := newLedgerFixture(t, policy)
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))
	f.seedStaff(t, "OPS-1", domain.StaffRoleOperations, "1111")
	f.seedStaff(t, "SUP-1", domain.StaffRoleSupervisor, "2222")

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")

	request := models.ReverseTransactionRequest{
		InstitutionID: testInstitution,
		TransactionID: original.TransactionID,
		Reason:        "customer complaint",
		MakerStaffID:  "OPS-1",
	}
	_, err := f.reversals.Reverse(context.Background(), request)
	if !errors.Is(err, commons.ErrApprovalRequired) {
		t.Fatalf("expected ErrApprovalRequired, got %v", err)
	}

	approval, err := f.approvals.Request(context.Background(), testInstitution, domain.ApprovalReferenceReversal, original.TransactionID, "OPS-1", "customer complaint")
	if err != nil {
		t.Fatalf("request approval: %v", err)
	}
	if _, err := f.approvals.Decide(context.Background(), testInstitution, approval.ID, "SUP-1", "2222", true, "verified"); err != nil {
		t.Fatalf("decide approval: %v", err)
	}

	if _, err := f.reversals.Reverse(context.Background(), request); err != nil {
		t.Fatalf("reverse with approval: %v", err)
	}
	assertDecimal(t, "debit account restored", f.balance(t, "ACC-A").CurrentBalance, dec("100.00"))

	implemented, err := f.approvalRepo.GetByID(context.Background(), testInstitution, approval.ID)
	if err != nil {
		t.Fatalf("get approval: %v", err)
	}
	if implemented.Status != domain.ApprovalStatusImplemented {
		t.Fatalf("expected IMPLEMENTED, got %s", implemented.Status)
	}
}

func TestReverseBelowThresholdSkipsApproval(t *testing.T) {
	policy := defaultPolicy()
	policy.ReversalApprovalThreshold = dec("50")
	f := newLedgerFixture(t, policy)
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")

	if _, err := f.reversals.Reverse(context.Background(), models.ReverseTransactionRequest{
		InstitutionID: testInstitution,
		TransactionID: original.TransactionID,
		Reason:        "posted in error",
		MakerStaffID:  "OPS-1",
	}); err != nil {
		t.Fatalf("reverse below threshold: %v", err)
	}
}

func openDisputeWithProvisionalCredit(t *testing.T, f *ledgerFixture, transactionID string) domain.Dispute {
	t.Helper()

	resp, err := f.reversals.OpenDispute(context.Background(), models.OpenDisputeRequest{
		InstitutionID:     testInstitution,
		TransactionID:     transactionID,
		Reason:            "cardholder does not recognize",
		OpenedBy:          "OPS-1",
		ProvisionalCredit: true,
	})
	if err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	if err := f.reversals.StartInvestigation(context.Background(), testInstitution, resp.Data.ID); err != nil {
		t.Fatalf("start investigation: %v", err)
	}
	return *resp.Data
}

func TestDisputeProvisionalCredit(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))
	f.mustCreateAccount(t, "DISPUTE-SUSPENSE", "USD", dec("1000.00"))

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")
	dispute := openDisputeWithProvisionalCredit(t, f, original.TransactionID)

	if dispute.ProvisionalCreditTransactionID == nil {
		t.Fatal("expected a provisional credit transaction")
	}
	assertDecimal(t, "customer advanced funds", f.balance(t, "ACC-A").CurrentBalance, dec("100.00"))
	assertDecimal(t, "suspense funded the advance", f.balance(t, "DISPUTE-SUSPENSE").CurrentBalance, dec("970.00"))

	stored, err := f.transactionRepo.GetByID(context.Background(), testInstitution, original.TransactionID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if stored.Status != domain.TransactionStatusDisputed {
		t.Fatalf("expected DISPUTED, got %s", stored.Status)
	}
}

func TestDisputeCustomerWins(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))
	f.mustCreateAccount(t, "DISPUTE-SUSPENSE", "USD", dec("1000.00"))

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")
	dispute := openDisputeWithProvisionalCredit(t, f, original.TransactionID)

	resp, err := f.reversals.ResolveDispute(context.Background(), models.ResolveDisputeRequest{
		InstitutionID: testInstitution,
		DisputeID:     dispute.ID,
		CustomerWins:  true,
		ResolvedBy:    "SUP-1",
		Note:          "merchant could not produce evidence",
	})
	if err != nil {
		t.Fatalf("resolve dispute: %v", err)
	}
	if resp.Data.Status != domain.DisputeStatusResolved {
		t.Fatalf("expected RESOLVED, got %s", resp.Data.Status)
	}

	// The definitive reversal replaces the provisional credit, so every
	// account ends where it started.
	assertDecimal(t, "customer made whole once", f.balance(t, "ACC-A").CurrentBalance, dec("100.00"))
	assertDecimal(t, "merchant returned funds", f.balance(t, "ACC-B").CurrentBalance, dec("0"))
	assertDecimal(t, "suspense recovered", f.balance(t, "DISPUTE-SUSPENSE").CurrentBalance, dec("1000.00"))

	stored, err := f.transactionRepo.GetByID(context.Background(), testInstitution, original.TransactionID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if stored.Status != domain.TransactionStatusReversed {
		t.Fatalf("expected REVERSED, got %s", stored.Status)
	}
}

func TestDisputeCustomerLoses(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))
	f.mustCreateAccount(t, "DISPUTE-SUSPENSE", "USD", dec("1000.00"))

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")
	dispute := openDisputeWithProvisionalCredit(t, f, original.TransactionID)

	resp, err := f.reversals.ResolveDispute(context.Background(), models.ResolveDisputeRequest{
		InstitutionID: testInstitution,
		DisputeID:     dispute.ID,
		CustomerWins:  false,
		ResolvedBy:    "SUP-1",
		Note:          "charge is legitimate",
	})
	if err != nil {
		t.Fatalf("resolve dispute: %v", err)
	}
	if resp.Data.Status != domain.DisputeStatusRejected {
		t.Fatalf("expected REJECTED, got %s", resp.Data.Status)
	}

	// Only the provisional credit unwinds; the disputed charge stands.
	assertDecimal(t, "customer back to post-charge balance", f.balance(t, "ACC-A").CurrentBalance, dec("70.00"))
	assertDecimal(t, "merchant keeps funds", f.balance(t, "ACC-B").CurrentBalance, dec("30.00"))
	assertDecimal(t, "suspense recovered", f.balance(t, "DISPUTE-SUSPENSE").CurrentBalance, dec("1000.00"))

	stored, err := f.transactionRepo.GetByID(context.Background(), testInstitution, original.TransactionID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if stored.Status != domain.TransactionStatusDisputed {
		t.Fatalf("expected original to rest DISPUTED, got %s", stored.Status)
	}
	if stored.IsReversed {
		t.Fatal("original must not be reversed when the customer loses")
	}
}

func TestOpenDisputeRejectsSecondDispute(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")

	request := models.OpenDisputeRequest{
		InstitutionID: testInstitution,
		TransactionID: original.TransactionID,
		Reason:        "cardholder does not recognize",
		OpenedBy:      "OPS-1",
	}
	if _, err := f.reversals.OpenDispute(context.Background(), request); err != nil {
		t.Fatalf("open dispute: %v", err)
	}

	if _, err := f.reversals.OpenDispute(context.Background(), request); err == nil {
		t.Fatal("expected error opening a second dispute on the same transaction")
	}
}

type failingDisputeRepo struct {
	repo_interfaces.DisputeRepository
}

func (r failingDisputeRepo) Create(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error) {
	return domain.Dispute{}, errors.New("storage unavailable")
}

func TestOpenDisputeCreateFailureLeavesTransactionCompleted(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.mustCreateAccount(t, "ACC-A", "USD", dec("100.00"))
	f.mustCreateAccount(t, "ACC-B", "USD", dec("0"))

	original := f.mustSubmit(t, "TX-1", "ACC-A", "ACC-B", dec("30.00"), "USD")

	policies := map[string]domain.InstitutionPolicy{testInstitution: defaultPolicy()}
	broken := services.NewReversalService(f.transactionRepo, failingDisputeRepo{f.disputeRepo}, f.postings, f.approvals, f.transactions, f.publisher, policies)

	_, err := broken.OpenDispute(context.Background(), models.OpenDisputeRequest{
		InstitutionID: testInstitution,
		TransactionID: original.TransactionID,
		Reason:        "cardholder does not recognize",
		OpenedBy:      "OPS-1",
	})
	if err == nil {
		t.Fatal("expected dispute create failure")
	}

	// The transaction must not be stranded DISPUTED with no dispute
	// record behind it.
	stored, err := f.transactionRepo.GetByID(context.Background(), testInstitution, original.TransactionID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if stored.Status != domain.TransactionStatusCompleted {
		t.Fatalf("expected COMPLETED after failed dispute open, got %s", stored.Status)
	}

	// A retry against working storage succeeds.
	if _, err := f.reversals.OpenDispute(context.Background(), models.OpenDisputeRequest{
		InstitutionID: testInstitution,
		TransactionID: original.TransactionID,
		Reason:        "cardholder does not recognize",
		OpenedBy:      "OPS-1",
	}); err != nil {
		t.Fatalf("open dispute after recovery: %v", err)
	}
}
