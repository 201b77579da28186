package models

import (
	"errors"
	"strings"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	InstitutionID           string          `json:"institutionId"`
	AccountNumber           string          `json:"accountNumber"`
	ProductCode             string          `json:"productCode"`
	Currency                string          `json:"currency"`
	Principal               decimal.Decimal `json:"principal"`
	AnnualRate              decimal.Decimal `json:"annualRate"`
	PenaltyRate             decimal.Decimal `json:"penaltyRate"`
	TenureMonths            int             `json:"tenureMonths"`
	RepaymentIntervalMonths int             `json:"repaymentIntervalMonths"`
	Method                  string          `json:"method"`
	InterestBeforePenalty   bool            `json:"interestBeforePenalty"`
	DisbursedAt             time.Time       `json:"disbursedAt"`
	FirstDueDate            time.Time       `json:"firstDueDate"`
}

func (r CreateLoanRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.AccountNumber) == "" {
		errs = append(errs, "accountNumber is required")
	}
	if !domain.IsValidCurrency(r.Currency) {
		errs = append(errs, "currency must be a 3-letter code")
	}
	if !r.Principal.GreaterThan(decimal.Zero) {
		errs = append(errs, "principal must be greater than zero")
	}
	if r.AnnualRate.LessThan(decimal.Zero) {
		errs = append(errs, "annualRate cannot be negative")
	}
	if r.TenureMonths <= 0 {
		errs = append(errs, "tenureMonths must be greater than zero")
	}
	if r.RepaymentIntervalMonths <= 0 {
		errs = append(errs, "repaymentIntervalMonths must be greater than zero")
	}
	if r.RepaymentIntervalMonths > 0 && r.TenureMonths%r.RepaymentIntervalMonths != 0 {
		errs = append(errs, "tenureMonths must be a multiple of repaymentIntervalMonths")
	}
	if !domain.InterestMethod(strings.ToUpper(strings.TrimSpace(r.Method))).Valid() {
		errs = append(errs, "method must be FLAT, REDUCING_BALANCE or DECLINING_BALANCE")
	}
	if r.FirstDueDate.IsZero() {
		errs = append(errs, "firstDueDate is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type ScheduleResponse struct {
	LoanID         string                          `json:"loanId"`
	TotalPrincipal decimal.Decimal                 `json:"totalPrincipal"`
	TotalInterest  decimal.Decimal                 `json:"totalInterest"`
	Entries        []domain.RepaymentScheduleEntry `json:"entries"`
}

type ApplyRepaymentRequest struct {
	InstitutionID string          `json:"institutionId"`
	LoanID        string          `json:"loanId"`
	Amount        decimal.Decimal `json:"amount"`
	ValueDate     time.Time       `json:"valueDate"`
}

func (r ApplyRepaymentRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.LoanID) == "" {
		errs = append(errs, "loanId is required")
	}
	if !r.Amount.GreaterThan(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// RepaymentAllocation reports how a repayment was split across an
// installment, in application order.
type RepaymentAllocation struct {
	InstallmentNumber int             `json:"installmentNumber"`
	Penalty           decimal.Decimal `json:"penalty"`
	Interest          decimal.Decimal `json:"interest"`
	Principal         decimal.Decimal `json:"principal"`
}

type RepaymentResult struct {
	LoanID      string                `json:"loanId"`
	Applied     decimal.Decimal       `json:"applied"`
	Unallocated decimal.Decimal       `json:"unallocated"`
	Allocations []RepaymentAllocation `json:"allocations"`
}
