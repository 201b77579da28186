package domain

import "github.com/shopspring/decimal"

type FeePolicy struct {
	// Rate is a fraction of the transaction amount, e.g. 0.005.
	Rate decimal.Decimal
	// Fixed is added on top of the rate-based portion.
	Fixed decimal.Decimal
	// Cap bounds the total fee when positive.
	Cap decimal.Decimal
}

func (f FeePolicy) FeeFor(amount decimal.Decimal, currency string) decimal.Decimal {
	fee := amount.Mul(f.Rate).Add(f.Fixed)
	if f.Cap.GreaterThan(decimal.Zero) && fee.GreaterThan(f.Cap) {
		fee = f.Cap
	}
	return RoundMinor(fee, currency)
}

// InstitutionPolicy carries the per-tenant configuration the ledger core
// consumes from collaborators: internal GL account numbers, limits, fee
// schedule, approval thresholds and declared custom-field sets.
type InstitutionPolicy struct {
	InstitutionID string
	// FXPositionAccounts maps currency code to the internal position
	// account cross-currency transactions decompose through. One account
	// per currency, since an account carries a single currency.
	FXPositionAccounts map[string]string
	// FeeIncomeAccountNumber receives transaction fees.
	FeeIncomeAccountNumber string
	// DisputeSuspenseAccountNumber funds provisional credits.
	DisputeSuspenseAccountNumber string

	MaxTransactionAmount      decimal.Decimal
	ReversalApprovalThreshold decimal.Decimal
	Fee                       FeePolicy

	AccountCustomFields     CustomFieldSet
	TransactionCustomFields CustomFieldSet
}
