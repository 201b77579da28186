package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InterestMethod string

const (
	// InterestMethodFlat charges a fixed rate on the original principal for
	// every installment, with equal principal portions.
	InterestMethodFlat InterestMethod = "FLAT"
	// InterestMethodReducingBalance charges interest on the outstanding
	// principal each period with equal principal portions.
	InterestMethodReducingBalance InterestMethod = "REDUCING_BALANCE"
	// InterestMethodDecliningBalance amortizes with a constant total
	// installment (annuity), interest on the declining balance.
	InterestMethodDecliningBalance InterestMethod = "DECLINING_BALANCE"
)

func (m InterestMethod) Valid() bool {
	switch m {
	case InterestMethodFlat, InterestMethodReducingBalance, InterestMethodDecliningBalance:
		return true
	}
	return false
}

type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "ACTIVE"
	LoanStatusClosed  LoanStatus = "CLOSED"
	LoanStatusDefault LoanStatus = "DEFAULT"
)

type Loan struct {
	ID            string
	InstitutionID string
	AccountNumber string
	ProductCode   string
	Currency      string
	Principal     decimal.Decimal
	// AnnualRate is a fraction, e.g. 0.18 for 18% per annum.
	AnnualRate decimal.Decimal
	// PenaltyRate is the fraction applied to an overdue installment's unpaid
	// portion per missed period.
	PenaltyRate             decimal.Decimal
	TenureMonths            int
	RepaymentIntervalMonths int
	Method                  InterestMethod
	// InterestBeforePenalty reverses the default penalty-first application
	// order for products that collect interest ahead of penalties.
	InterestBeforePenalty bool
	Status                LoanStatus
	DisbursedAt           time.Time
	FirstDueDate          time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (l Loan) InstallmentCount() int {
	if l.RepaymentIntervalMonths <= 0 {
		return 0
	}
	return l.TenureMonths / l.RepaymentIntervalMonths
}
