package models

import (
	"errors"
	"strings"
)

type ReverseTransactionRequest struct {
	InstitutionID string `json:"institutionId"`
	TransactionID string `json:"transactionId"`
	Reason        string `json:"reason"`
	MakerStaffID  string `json:"makerStaffId"`
}

func (r ReverseTransactionRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.TransactionID) == "" {
		errs = append(errs, "transactionId is required")
	}
	if strings.TrimSpace(r.Reason) == "" {
		errs = append(errs, "reason is required")
	}
	if strings.TrimSpace(r.MakerStaffID) == "" {
		errs = append(errs, "makerStaffId is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type ReversalResult struct {
	ReversalTransactionID string `json:"reversalTransactionId"`
	OriginalTransactionID string `json:"originalTransactionId"`
	Status                string `json:"status"`
}

type OpenDisputeRequest struct {
	InstitutionID     string `json:"institutionId"`
	TransactionID     string `json:"transactionId"`
	Reason            string `json:"reason"`
	OpenedBy          string `json:"openedBy"`
	ProvisionalCredit bool   `json:"provisionalCredit"`
}

func (r OpenDisputeRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.TransactionID) == "" {
		errs = append(errs, "transactionId is required")
	}
	if strings.TrimSpace(r.Reason) == "" {
		errs = append(errs, "reason is required")
	}
	if strings.TrimSpace(r.OpenedBy) == "" {
		errs = append(errs, "openedBy is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type ResolveDisputeRequest struct {
	InstitutionID string `json:"institutionId"`
	DisputeID     string `json:"disputeId"`
	CustomerWins  bool   `json:"customerWins"`
	ResolvedBy    string `json:"resolvedBy"`
	Note          string `json:"note"`
}

func (r ResolveDisputeRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.InstitutionID) == "" {
		errs = append(errs, "institutionId is required")
	}
	if strings.TrimSpace(r.DisputeID) == "" {
		errs = append(errs, "disputeId is required")
	}
	if strings.TrimSpace(r.ResolvedBy) == "" {
		errs = append(errs, "resolvedBy is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
