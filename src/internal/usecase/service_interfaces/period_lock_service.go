package service_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
)

type PeriodLockService interface {
	IsLocked(ctx context.Context, institutionID string, date time.Time) (bool, error)
	Lock(ctx context.Context, req models.LockPeriodRequest) (commons.Response[domain.LedgerLockPeriod], error)
	Unlock(ctx context.Context, req models.UnlockPeriodRequest) (commons.Response[domain.LedgerLockPeriod], error)
}
