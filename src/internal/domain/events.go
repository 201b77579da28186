package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event topics consumed by notification, reporting-cache and AML rule
// evaluation collaborators.
const (
	TopicTransactionCompleted = "transaction.completed"
	TopicTransactionFailed    = "transaction.failed"
	TopicTransactionReversed  = "transaction.reversed"
	TopicPostingCreated       = "posting.created"
)

type TransactionEvent struct {
	EventID             string            `json:"eventId"`
	InstitutionID       string            `json:"institutionId"`
	TransactionID       string            `json:"transactionId"`
	Reference           string            `json:"reference"`
	DebitAccountNumber  string            `json:"debitAccountNumber"`
	CreditAccountNumber string            `json:"creditAccountNumber"`
	Amount              decimal.Decimal   `json:"amount"`
	Currency            string            `json:"currency"`
	Status              TransactionStatus `json:"status"`
	FailureReason       string            `json:"failureReason,omitempty"`
	OccurredAt          time.Time         `json:"occurredAt"`
}

type PostingEvent struct {
	EventID             string          `json:"eventId"`
	InstitutionID       string          `json:"institutionId"`
	PostingID           string          `json:"postingId"`
	TransactionID       string          `json:"transactionId"`
	DebitAccountNumber  string          `json:"debitAccountNumber"`
	CreditAccountNumber string          `json:"creditAccountNumber"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	ValueDate           time.Time       `json:"valueDate"`
	OccurredAt          time.Time       `json:"occurredAt"`
}
