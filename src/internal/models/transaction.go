package models

import (
	"errors"
	"strings"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type SubmitTransactionRequest struct {
	InstitutionID       string              `json:"institutionId"`
	Reference           string              `json:"reference"`
	DebitAccountNumber  string              `json:"debitAccountNumber"`
	CreditAccountNumber string              `json:"creditAccountNumber"`
	Amount              decimal.Decimal     `json:"amount"`
	Currency            string              `json:"currency"`
	Type                string              `json:"type"`
	Category            string              `json:"category"`
	Narration           string              `json:"narration"`
	ValueDate           time.Time           `json:"valueDate"`
	CustomFields        domain.CustomFields `json:"customFields,omitempty"`
}

func (r SubmitTransactionRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.Reference) == "" {
		errs = append(errs, "reference is required")
	}
	if strings.TrimSpace(r.DebitAccountNumber) == "" {
		errs = append(errs, "debitAccountNumber is required")
	}
	if strings.TrimSpace(r.CreditAccountNumber) == "" {
		errs = append(errs, "creditAccountNumber is required")
	}
	if strings.TrimSpace(r.DebitAccountNumber) != "" &&
		strings.TrimSpace(r.DebitAccountNumber) == strings.TrimSpace(r.CreditAccountNumber) {
		errs = append(errs, "debitAccountNumber and creditAccountNumber cannot be the same")
	}
	if !r.Amount.GreaterThan(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if !domain.IsValidCurrency(r.Currency) {
		errs = append(errs, "currency must be a 3-letter code")
	}
	switch domain.TransactionType(strings.ToUpper(strings.TrimSpace(r.Type))) {
	case domain.TransactionTypeDebit, domain.TransactionTypeCredit:
	default:
		errs = append(errs, "type must be DEBIT or CREDIT")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type TransactionResult struct {
	TransactionID string          `json:"transactionId"`
	Reference     string          `json:"reference"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	Currency      string          `json:"currency"`
	PostingIDs    []string        `json:"postingIds,omitempty"`
	FailureReason string          `json:"failureReason,omitempty"`
}

type CancelTransactionRequest struct {
	InstitutionID string `json:"institutionId"`
	TransactionID string `json:"transactionId"`
	Reason        string `json:"reason"`
}

func (r CancelTransactionRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.TransactionID) == "" {
		errs = append(errs, "transactionId is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
