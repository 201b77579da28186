package service_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
)

type LoanService interface {
	// CreateLoan records the loan and generates its repayment schedule.
	CreateLoan(ctx context.Context, req models.CreateLoanRequest) (commons.Response[models.ScheduleResponse], error)
	GetSchedule(ctx context.Context, institutionID string, loanID string) (commons.Response[models.ScheduleResponse], error)

	// ApplyRepayment allocates a repayment across due installments in
	// penalty, interest, principal order, oldest installment first.
	ApplyRepayment(ctx context.Context, req models.ApplyRepaymentRequest) (commons.Response[models.RepaymentResult], error)
}
