package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
	TransactionStatusDisputed  TransactionStatus = "DISPUTED"
)

var transactionStatusTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:   {TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled},
	TransactionStatusCompleted: {TransactionStatusReversed, TransactionStatusDisputed},
	TransactionStatusFailed:    {},
	TransactionStatusCancelled: {},
	TransactionStatusReversed:  {},
	TransactionStatusDisputed:  {TransactionStatusReversed},
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transactionStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusFailed || s == TransactionStatusCancelled || s == TransactionStatusReversed
}

type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

type TransactionCategory string

const (
	TransactionCategoryTransfer          TransactionCategory = "TRANSFER"
	TransactionCategoryFee               TransactionCategory = "FEE"
	TransactionCategoryLoanDisbursement  TransactionCategory = "LOAN_DISBURSEMENT"
	TransactionCategoryLoanRepayment     TransactionCategory = "LOAN_REPAYMENT"
	TransactionCategoryReversal          TransactionCategory = "REVERSAL"
	TransactionCategoryProvisionalCredit TransactionCategory = "PROVISIONAL_CREDIT"
)

type Transaction struct {
	ID                    string
	InstitutionID         string
	Reference             string
	DebitAccountNumber    string
	CreditAccountNumber   string
	Amount                decimal.Decimal
	Fee                   decimal.Decimal
	Currency              string
	CreditCurrency        string
	Type                  TransactionType
	Category              TransactionCategory
	Status                TransactionStatus
	FailureReason         *string
	Narration             string
	ValueDate             time.Time
	ParentTransactionID   *string
	IsReversed            bool
	ReversalTransactionID *string
	CustomFields          CustomFields
	CreatedAt             time.Time
	UpdatedAt             time.Time
	ProcessedAt           *time.Time
}

// SamePayload reports whether a resubmission under the same reference
// carries the same money movement. Differing payloads under one reference
// are a hard conflict, never an idempotent replay.
func (t Transaction) SamePayload(other Transaction) bool {
	return t.DebitAccountNumber == other.DebitAccountNumber &&
		t.CreditAccountNumber == other.CreditAccountNumber &&
		t.Amount.Equal(other.Amount) &&
		NormalizeCurrency(t.Currency) == NormalizeCurrency(other.Currency) &&
		t.Type == other.Type
}
