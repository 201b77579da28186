package models

import (
	"errors"
	"strings"
)

type RequestApprovalRequest struct {
	InstitutionID string `json:"institutionId"`
	ReferenceType string `json:"referenceType"`
	ReferenceID   string `json:"referenceId"`
	MakerStaffID  string `json:"makerStaffId"`
	Reason        string `json:"reason"`
}

func (r RequestApprovalRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.ReferenceType) == "" {
		errs = append(errs, "referenceType is required")
	}
	if strings.TrimSpace(r.ReferenceID) == "" {
		errs = append(errs, "referenceId is required")
	}
	if strings.TrimSpace(r.MakerStaffID) == "" {
		errs = append(errs, "makerStaffId is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type DecideApprovalRequest struct {
	InstitutionID  string `json:"institutionId"`
	ApprovalID     string `json:"approvalId"`
	CheckerStaffID string `json:"checkerStaffId"`
	CheckerPIN     string `json:"checkerPin"`
	Approve        bool   `json:"approve"`
	Note           string `json:"note"`
}

func (r DecideApprovalRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.ApprovalID) == "" {
		errs = append(errs, "approvalId is required")
	}
	if strings.TrimSpace(r.CheckerStaffID) == "" {
		errs = append(errs, "checkerStaffId is required")
	}
	if strings.TrimSpace(r.CheckerPIN) == "" {
		errs = append(errs, "checkerPin is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
