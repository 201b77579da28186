package domain

import "time"

type ApprovalStatus string

const (
	ApprovalStatusRequested   ApprovalStatus = "REQUESTED"
	ApprovalStatusApproved    ApprovalStatus = "APPROVED"
	ApprovalStatusRejected    ApprovalStatus = "REJECTED"
	ApprovalStatusImplemented ApprovalStatus = "IMPLEMENTED"
)

var approvalStatusTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalStatusRequested:   {ApprovalStatusApproved, ApprovalStatusRejected},
	ApprovalStatusApproved:    {ApprovalStatusImplemented},
	ApprovalStatusRejected:    {},
	ApprovalStatusImplemented: {},
}

func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	for _, allowed := range approvalStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ApprovalReferenceType string

const (
	ApprovalReferenceReversal     ApprovalReferenceType = "REVERSAL"
	ApprovalReferencePeriodUnlock ApprovalReferenceType = "PERIOD_UNLOCK"
)

// Approval is the generic maker-checker record. The maker requests a
// privileged action against a reference; a different staff member approves
// or rejects; the acting service marks it implemented once carried out.
type Approval struct {
	ID            string
	InstitutionID string
	ReferenceType ApprovalReferenceType
	ReferenceID   string
	MakerID       string
	CheckerID     *string
	Status        ApprovalStatus
	Reason        string
	DecisionNote  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DecidedAt     *time.Time
}
