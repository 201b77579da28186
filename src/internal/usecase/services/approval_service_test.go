package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

func TestApprovalLifecycle(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.seedStaff(t, "OPS-1", domain.StaffRoleOperations, "1111")
	f.seedStaff(t, "SUP-1", domain.StaffRoleSupervisor, "2222")

	approval, err := f.approvals.Request(context.Background(), testInstitution, domain.ApprovalReferenceReversal, "tx-1", "OPS-1", "large reversal")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if approval.Status != domain.ApprovalStatusRequested {
		t.Fatalf("expected REQUESTED, got %s", approval.Status)
	}

	// Not yet decided.
	if _, err := f.approvals.ApprovedFor(context.Background(), testInstitution, domain.ApprovalReferenceReversal, "tx-1"); !errors.Is(err, commons.ErrApprovalRequired) {
		t.Fatalf("expected ErrApprovalRequired before decision, got %v", err)
	}

	decided, err := f.approvals.Decide(context.Background(), testInstitution, approval.ID, "SUP-1", "2222", true, "looks right")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != domain.ApprovalStatusApproved {
		t.Fatalf("expected APPROVED, got %s", decided.Status)
	}
	if decided.CheckerID == nil || *decided.CheckerID != "SUP-1" {
		t.Fatal("checker not recorded")
	}
	if decided.DecidedAt == nil {
		t.Fatal("decision time not recorded")
	}

	granted, err := f.approvals.ApprovedFor(context.Background(), testInstitution, domain.ApprovalReferenceReversal, "tx-1")
	if err != nil {
		t.Fatalf("approved for: %v", err)
	}
	if granted.ID != approval.ID {
		t.Fatalf("wrong approval returned: %s", granted.ID)
	}

	if err := f.approvals.MarkImplemented(context.Background(), testInstitution, approval.ID); err != nil {
		t.Fatalf("mark implemented: %v", err)
	}
	final, err := f.approvalRepo.GetByID(context.Background(), testInstitution, approval.ID)
	if err != nil {
		t.Fatalf("get approval: %v", err)
	}
	if final.Status != domain.ApprovalStatusImplemented {
		t.Fatalf("expected IMPLEMENTED, got %s", final.Status)
	}
}

func TestApprovalSelfApprovalRejected(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.seedStaff(t, "SUP-1", domain.StaffRoleSupervisor, "2222")

	approval, err := f.approvals.Request(context.Background(), testInstitution, domain.ApprovalReferenceReversal, "tx-1", "SUP-1", "large reversal")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err = f.approvals.Decide(context.Background(), testInstitution, approval.ID, "SUP-1", "2222", true, "")
	if !errors.Is(err, commons.ErrSelfApproval) {
		t.Fatalf("expected ErrSelfApproval, got %v", err)
	}
}

func TestApprovalWrongPINRejected(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.seedStaff(t, "OPS-1", domain.StaffRoleOperations, "1111")
	f.seedStaff(t, "SUP-1", domain.StaffRoleSupervisor, "2222")

	approval, err := f.approvals.Request(context.Background(), testInstitution, domain.ApprovalReferenceReversal, "tx-1", "OPS-1", "large reversal")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := f.approvals.Decide(context.Background(), testInstitution, approval.ID, "SUP-1", "9999", true, ""); err == nil {
		t.Fatal("expected error for wrong approval PIN")
	}
}

func TestApprovalRequiresElevatedChecker(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.seedStaff(t, "OPS-1", domain.StaffRoleOperations, "1111")
	f.seedStaff(t, "OPS-2", domain.StaffRoleOperations, "3333")

	approval, err := f.approvals.Request(context.Background(), testInstitution, domain.ApprovalReferenceReversal, "tx-1", "OPS-1", "large reversal")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := f.approvals.Decide(context.Background(), testInstitution, approval.ID, "OPS-2", "3333", true, ""); err == nil {
		t.Fatal("expected error for non-elevated checker")
	}
}

func TestApprovalRejectionIsTerminal(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())
	f.seedStaff(t, "OPS-1", domain.StaffRoleOperations, "1111")
	f.seedStaff(t, "SUP-1", domain.StaffRoleSupervisor, "2222")

	approval, err := f.approvals.Request(context.Background(), testInstitution, domain.ApprovalReferenceReversal, "tx-1", "OPS-1", "large reversal")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.approvals.Decide(context.Background(), testInstitution, approval.ID, "SUP-1", "2222", false, "not justified"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// A rejected request never grants anything and cannot be re-decided.
	if _, err := f.approvals.ApprovedFor(context.Background(), testInstitution, domain.ApprovalReferenceReversal, "tx-1"); !errors.Is(err, commons.ErrApprovalRequired) {
		t.Fatalf("expected ErrApprovalRequired after rejection, got %v", err)
	}
	if _, err := f.approvals.Decide(context.Background(), testInstitution, approval.ID, "SUP-1", "2222", true, ""); !errors.Is(err, commons.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestApprovalRequestRequiresKnownStaff(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	if _, err := f.approvals.Request(context.Background(), testInstitution, domain.ApprovalReferenceReversal, "tx-1", "GHOST", "large reversal"); err == nil {
		t.Fatal("expected error for unknown maker")
	}
}
