package service_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type PostRequest struct {
	InstitutionID       string
	TransactionID       string
	DebitAccountNumber  string
	CreditAccountNumber string
	Amount              decimal.Decimal
	Currency            string
	Narration           string
	ValueDate           time.Time
	// UnlockGrantApprovalID names an approved PERIOD_UNLOCK approval that
	// permits posting into an otherwise locked period.
	UnlockGrantApprovalID string
}

type PostingService interface {
	Post(ctx context.Context, req PostRequest) (domain.GLPosting, error)
	ListByTransaction(ctx context.Context, institutionID string, transactionID string) ([]domain.GLPosting, error)
	MarkReversed(ctx context.Context, institutionID string, postingID string, reversalPostingID string) error

	// RecoverIncomplete resolves postings left mid-write by a crash. Run at
	// startup and periodically thereafter.
	RecoverIncomplete(ctx context.Context) (int, error)
}
