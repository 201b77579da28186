package service_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
)

type ReversalService interface {
	Reverse(ctx context.Context, req models.ReverseTransactionRequest) (commons.Response[models.ReversalResult], error)

	OpenDispute(ctx context.Context, req models.OpenDisputeRequest) (commons.Response[domain.Dispute], error)
	StartInvestigation(ctx context.Context, institutionID string, disputeID string) error
	ResolveDispute(ctx context.Context, req models.ResolveDisputeRequest) (commons.Response[domain.Dispute], error)
}
