package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Minor-unit exponents per ISO 4217. Currencies not listed here default to
// two decimal places.
var currencyExponents = map[string]int32{
	"BHD": 3,
	"JOD": 3,
	"KWD": 3,
	"OMR": 3,
	"TND": 3,
	"JPY": 0,
	"KRW": 0,
	"UGX": 0,
	"VND": 0,
	"XAF": 0,
	"XOF": 0,
}

const defaultCurrencyExponent = 2

func CurrencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[NormalizeCurrency(currency)]; ok {
		return exp
	}
	return defaultCurrencyExponent
}

func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// RoundMinor rounds an amount to the currency's minor-unit precision, half
// away from zero. All amounts stored on ledger records must pass through
// this before persistence.
func RoundMinor(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(CurrencyExponent(currency))
}

func IsValidCurrency(currency string) bool {
	code := NormalizeCurrency(currency)
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func IsPositiveAmount(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}
