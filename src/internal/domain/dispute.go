package domain

import "time"

type DisputeStatus string

const (
	DisputeStatusOpen               DisputeStatus = "OPEN"
	DisputeStatusUnderInvestigation DisputeStatus = "UNDER_INVESTIGATION"
	DisputeStatusResolved           DisputeStatus = "RESOLVED"
	DisputeStatusRejected           DisputeStatus = "REJECTED"
)

var disputeStatusTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:               {DisputeStatusUnderInvestigation},
	DisputeStatusUnderInvestigation: {DisputeStatusResolved, DisputeStatusRejected},
	DisputeStatusResolved:           {},
	DisputeStatusRejected:           {},
}

func (s DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	for _, allowed := range disputeStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Dispute tracks a customer challenge against a completed transaction.
// Resolution in the customer's favour triggers a reversal; rejection closes
// with no ledger impact beyond unwinding any provisional credit.
type Dispute struct {
	ID                             string
	InstitutionID                  string
	TransactionID                  string
	Reason                         string
	Status                         DisputeStatus
	ProvisionalCreditTransactionID *string
	OpenedBy                       string
	ResolvedBy                     *string
	ResolutionNote                 *string
	CreatedAt                      time.Time
	UpdatedAt                      time.Time
	ResolvedAt                     *time.Time
}
