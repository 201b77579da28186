package repo_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type StaffRepository interface {
	Create(ctx context.Context, staff domain.Staff) (domain.Staff, error)
	GetByStaffID(ctx context.Context, institutionID string, staffID string) (domain.Staff, error)
}
