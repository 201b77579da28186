package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPartial InstallmentStatus = "PARTIAL"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
	InstallmentStatusOverdue InstallmentStatus = "OVERDUE"
)

type RepaymentScheduleEntry struct {
	ID                string
	LoanID            string
	InstallmentNumber int
	DueDate           time.Time
	PrincipalDue      decimal.Decimal
	InterestDue       decimal.Decimal
	PenaltyDue        decimal.Decimal
	PrincipalPaid     decimal.Decimal
	InterestPaid      decimal.Decimal
	PenaltyPaid       decimal.Decimal
	Status            InstallmentStatus
	// PenaltyAccruedAt records when the overdue penalty was charged.
	// Payment allocation rewrites Status, so the once-only accrual is
	// keyed on this timestamp, not on the OVERDUE marker.
	PenaltyAccruedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (e RepaymentScheduleEntry) Outstanding() decimal.Decimal {
	return e.PrincipalDue.Sub(e.PrincipalPaid).
		Add(e.InterestDue.Sub(e.InterestPaid)).
		Add(e.PenaltyDue.Sub(e.PenaltyPaid))
}

func (e RepaymentScheduleEntry) Settled() bool {
	return e.Outstanding().LessThanOrEqual(decimal.Zero)
}
