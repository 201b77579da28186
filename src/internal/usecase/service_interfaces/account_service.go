package service_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
	"github.com/shopspring/decimal"
)

type AccountService interface {
	CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error)
	GetAccountBalance(ctx context.Context, institutionID string, accountNumber string) (commons.Response[domain.Balances], error)

	Debit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error
	Credit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error
	PlaceHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error
	ReleaseHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error

	UpdateStatus(ctx context.Context, institutionID string, accountNumber string, to domain.AccountStatus) error
}
