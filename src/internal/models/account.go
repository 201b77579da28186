package models

import (
	"errors"
	"strings"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	InstitutionID    string              `json:"institutionId"`
	CustomerID       string              `json:"customerId"`
	AccountNumber    string              `json:"accountNumber"`
	Currency         string              `json:"currency"`
	InitialDeposit   decimal.Decimal     `json:"initialDeposit"`
	OverdraftLimit   decimal.Decimal     `json:"overdraftLimit"`
	OverdraftAllowed bool                `json:"overdraftAllowed"`
	CustomFields     domain.CustomFields `json:"customFields,omitempty"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.CustomerID) == "" {
		errs = append(errs, "customerId is required")
	}
	if strings.TrimSpace(r.AccountNumber) == "" {
		errs = append(errs, "accountNumber is required")
	}
	if !domain.IsValidCurrency(r.Currency) {
		errs = append(errs, "currency must be a 3-letter code")
	}
	if r.InitialDeposit.LessThan(decimal.Zero) {
		errs = append(errs, "initialDeposit cannot be negative")
	}
	if r.OverdraftLimit.LessThan(decimal.Zero) {
		errs = append(errs, "overdraftLimit cannot be negative")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type UpdateAccountStatusRequest struct {
	InstitutionID string `json:"institutionId"`
	AccountNumber string `json:"accountNumber"`
	Status        string `json:"status"`
}

func (r UpdateAccountStatusRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.AccountNumber) == "" {
		errs = append(errs, "accountNumber is required")
	}
	if strings.TrimSpace(r.Status) == "" {
		errs = append(errs, "status is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type AccountResponse struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customerId"`
	AccountNumber    string          `json:"accountNumber"`
	Currency         string          `json:"currency"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	HoldBalance      decimal.Decimal `json:"holdBalance"`
	LedgerBalance    decimal.Decimal `json:"ledgerBalance"`
	Status           string          `json:"status"`
}
