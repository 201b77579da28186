package repo_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type ApprovalRepository interface {
	Create(ctx context.Context, approval domain.Approval) (domain.Approval, error)
	GetByID(ctx context.Context, institutionID string, id string) (domain.Approval, error)

	// GetLatestByReference returns the most recent approval for a reference,
	// regardless of status.
	GetLatestByReference(ctx context.Context, institutionID string, referenceType domain.ApprovalReferenceType, referenceID string) (domain.Approval, error)

	// UpdateStatus transitions conditionally on the current status.
	UpdateStatus(ctx context.Context, institutionID string, id string, from domain.ApprovalStatus, to domain.ApprovalStatus, checkerID *string, note *string) error
}
