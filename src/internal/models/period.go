package models

import (
	"errors"
	"strings"
	"time"
)

type LockPeriodRequest struct {
	InstitutionID string    `json:"institutionId"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	StaffID       string    `json:"staffId"`
}

func (r LockPeriodRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		errs = append(errs, "startDate and endDate are required")
	}
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		errs = append(errs, "endDate cannot be before startDate")
	}
	if strings.TrimSpace(r.StaffID) == "" {
		errs = append(errs, "staffId is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type UnlockPeriodRequest struct {
	InstitutionID string `json:"institutionId"`
	PeriodID      string `json:"periodId"`
	StaffID       string `json:"staffId"`
	Reason        string `json:"reason"`
	ApprovalID    string `json:"approvalId"`
}

func (r UnlockPeriodRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.PeriodID) == "" {
		errs = append(errs, "periodId is required")
	}
	if strings.TrimSpace(r.StaffID) == "" {
		errs = append(errs, "staffId is required")
	}
	if strings.TrimSpace(r.Reason) == "" {
		errs = append(errs, "reason is required")
	}
	if strings.TrimSpace(r.ApprovalID) == "" {
		errs = append(errs, "approvalId is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
