package domain_test

import (
	"testing"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

func TestRoundMinor(t *testing.T) {
	cases := []struct {
		currency string
		amount   string
		want     string
	}{
		{"USD", "10.005", "10.01"},
		{"USD", "10.004", "10.00"},
		{"usd", "10.005", "10.01"},
		{"JPY", "10.5", "11"},
		{"JPY", "10.4", "10"},
		{"BHD", "1.23456", "1.235"},
		{"XYZ", "1.005", "1.01"},
		{"USD", "-10.005", "-10.01"},
	}
	for _, tc := range cases {
		amount, _ := decimal.NewFromString(tc.amount)
		want, _ := decimal.NewFromString(tc.want)
		got := domain.RoundMinor(amount, tc.currency)
		if !got.Equal(want) {
			t.Errorf("RoundMinor(%s, %s) = %s, want %s", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestCurrencyExponent(t *testing.T) {
	if got := domain.CurrencyExponent("JPY"); got != 0 {
		t.Errorf("JPY exponent = %d, want 0", got)
	}
	if got := domain.CurrencyExponent("KWD"); got != 3 {
		t.Errorf("KWD exponent = %d, want 3", got)
	}
	if got := domain.CurrencyExponent("ZZZ"); got != 2 {
		t.Errorf("unknown currency exponent = %d, want 2", got)
	}
}

func TestIsValidCurrency(t *testing.T) {
	for _, valid := range []string{"USD", "eur", " NGN "} {
		if !domain.IsValidCurrency(valid) {
			t.Errorf("expected %q to be valid", valid)
		}
	}
	for _, invalid := range []string{"", "US", "USDT", "U$D", "12X"} {
		if domain.IsValidCurrency(invalid) {
			t.Errorf("expected %q to be invalid", invalid)
		}
	}
}

func TestIsPositiveAmount(t *testing.T) {
	if domain.IsPositiveAmount(decimal.Zero) {
		t.Error("zero must not be positive")
	}
	if domain.IsPositiveAmount(decimal.NewFromInt(-1)) {
		t.Error("negative must not be positive")
	}
	if !domain.IsPositiveAmount(decimal.RequireFromString("0.001")) {
		t.Error("small positive amount rejected")
	}
}
