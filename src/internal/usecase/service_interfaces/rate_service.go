package service_interfaces

import (
	"context"

	"github.com/shopspring/decimal"
)

type RateService interface {
	// Convert returns the amount expressed in the target currency along
	// with the rate used. Same-currency conversion uses rate 1.
	Convert(ctx context.Context, amount decimal.Decimal, fromCurrency string, toCurrency string) (decimal.Decimal, decimal.Decimal, error)
}
