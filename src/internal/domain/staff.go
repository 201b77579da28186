package domain

import "time"

type StaffRole string

const (
	StaffRoleOperations StaffRole = "OPERATIONS"
	StaffRoleSupervisor StaffRole = "SUPERVISOR"
	StaffRoleAdmin      StaffRole = "ADMIN"
)

// Elevated reports whether the role may authorize period unlocks and act
// as checker on maker-checker requests.
func (r StaffRole) Elevated() bool {
	return r == StaffRoleSupervisor || r == StaffRoleAdmin
}

// Staff identity is owned by the onboarding collaborator; the ledger core
// reads it for maker-checker decisions only.
type Staff struct {
	ID              string
	InstitutionID   string
	StaffID         string
	FullName        string
	Role            StaffRole
	ApprovalPINHash string
	SupervisorID    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
