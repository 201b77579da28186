package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

type RateService struct {
	rateRepo repo_interfaces.RateRepository
}

func NewRateService(rateRepo repo_interfaces.RateRepository) *RateService {
	return &RateService{rateRepo: rateRepo}
}

func (s *RateService) Convert(ctx context.Context, amount decimal.Decimal, fromCurrency string, toCurrency string) (decimal.Decimal, decimal.Decimal, error) {
	from := domain.NormalizeCurrency(fromCurrency)
	to := domain.NormalizeCurrency(toCurrency)

	if from == to {
		return amount, decimal.NewFromInt(1), nil
	}

	rate, err := s.rateRepo.GetRate(ctx, from, to)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return decimal.Zero, decimal.Zero, fmt.Errorf("no rate configured for %s to %s", from, to)
		}
		logger.Error("rate service get rate failed", err, logger.Fields{
			"fromCurrency": from,
			"toCurrency":   to,
		})
		return decimal.Zero, decimal.Zero, err
	}

	if rate.Rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("rate for %s to %s must be greater than zero", from, to)
	}

	converted := domain.RoundMinor(amount.Mul(rate.Rate), to)
	return converted, rate.Rate, nil
}

var _ service_interfaces.RateService = (*RateService)(nil)
