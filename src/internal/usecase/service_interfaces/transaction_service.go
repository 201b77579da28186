package service_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
)

type TransactionService interface {
	SubmitTransaction(ctx context.Context, req models.SubmitTransactionRequest) (commons.Response[models.TransactionResult], error)
	CancelTransaction(ctx context.Context, req models.CancelTransactionRequest) (commons.Response[models.TransactionResult], error)

	// ExpirePending fails transactions left PENDING longer than the horizon,
	// releasing any holds they placed. Returns the number expired.
	ExpirePending(ctx context.Context, horizon time.Duration, limit int) (int, error)
}
