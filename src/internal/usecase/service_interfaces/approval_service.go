package service_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type ApprovalService interface {
	Request(ctx context.Context, institutionID string, referenceType domain.ApprovalReferenceType, referenceID string, makerStaffID string, reason string) (domain.Approval, error)

	// Decide approves or rejects a request. The checker must be a different
	// staff member than the maker, hold an elevated role, and present a
	// valid approval PIN.
	Decide(ctx context.Context, institutionID string, approvalID string, checkerStaffID string, checkerPIN string, approve bool, note string) (domain.Approval, error)

	MarkImplemented(ctx context.Context, institutionID string, approvalID string) error

	// ApprovedFor returns the approved, not yet implemented approval for a
	// reference, or commons.ErrApprovalRequired.
	ApprovedFor(ctx context.Context, institutionID string, referenceType domain.ApprovalReferenceType, referenceID string) (domain.Approval, error)
}
