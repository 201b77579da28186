package repo_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type LoanRepository interface {
	Create(ctx context.Context, loan domain.Loan) (domain.Loan, error)
	GetByID(ctx context.Context, institutionID string, id string) (domain.Loan, error)
	UpdateStatus(ctx context.Context, institutionID string, id string, status domain.LoanStatus) error
}

type ScheduleRepository interface {
	CreateEntries(ctx context.Context, entries []domain.RepaymentScheduleEntry) ([]domain.RepaymentScheduleEntry, error)
	ListByLoan(ctx context.Context, loanID string) ([]domain.RepaymentScheduleEntry, error)
	UpdateEntry(ctx context.Context, entry domain.RepaymentScheduleEntry) error
}
