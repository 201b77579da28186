package memory

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type RateRepository struct {
	store *Store
}

func NewRateRepository(store *Store) *RateRepository {
	return &RateRepository{store: store}
}

func (r *RateRepository) SeedRates(rates []domain.Rate) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.rates = append(r.store.rates, rates...)
}

func (r *RateRepository) GetRates(ctx context.Context) ([]domain.Rate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rates := make([]domain.Rate, len(r.store.rates))
	copy(rates, r.store.rates)
	return rates, nil
}

func (r *RateRepository) GetRate(ctx context.Context, fromCurrency string, toCurrency string) (domain.Rate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	from := domain.NormalizeCurrency(fromCurrency)
	to := domain.NormalizeCurrency(toCurrency)

	var latest domain.Rate
	found := false
	for _, rate := range r.store.rates {
		if domain.NormalizeCurrency(rate.FromCurrency) != from || domain.NormalizeCurrency(rate.ToCurrency) != to {
			continue
		}
		if !found || rate.RateDate.After(latest.RateDate) {
			latest = rate
			found = true
		}
	}
	if !found {
		return domain.Rate{}, commons.ErrRecordNotFound
	}
	return latest, nil
}

var _ repo_interfaces.RateRepository = (*RateRepository)(nil)
