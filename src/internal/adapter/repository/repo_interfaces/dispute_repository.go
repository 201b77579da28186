package repo_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type DisputeRepository interface {
	Create(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error)
	GetByID(ctx context.Context, institutionID string, id string) (domain.Dispute, error)
	GetOpenByTransaction(ctx context.Context, institutionID string, transactionID string) (domain.Dispute, error)
	Update(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error)
}
