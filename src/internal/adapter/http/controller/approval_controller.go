package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
)

type ApprovalService interface {
	Request(ctx context.Context, institutionID string, referenceType domain.ApprovalReferenceType, referenceID string, makerStaffID string, reason string) (domain.Approval, error)
	Decide(ctx context.Context, institutionID string, approvalID string, checkerStaffID string, checkerPIN string, approve bool, note string) (domain.Approval, error)
}

type ApprovalController struct {
	service ApprovalService
}

func NewApprovalController(service ApprovalService) *ApprovalController {
	return &ApprovalController{service: service}
}

func (c *ApprovalController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("/approvals", wrap(c.request))
	mux.Handle("/approvals/decide", wrap(c.decide))
}

func (c *ApprovalController) request(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[domain.Approval]("method not allowed"))
		return
	}

	var req models.RequestApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[domain.Approval]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[domain.Approval]("validation failed", err.Error()))
		return
	}

	approval, err := c.service.Request(r.Context(), req.InstitutionID, domain.ApprovalReferenceType(req.ReferenceType), req.ReferenceID, req.MakerStaffID, req.Reason)
	if err != nil {
		response := commons.ErrorResponse[domain.Approval]("failed to request approval", err.Error())
		respondError(w, r, response, err, start)
		return
	}

	response := commons.SuccessResponse("approval requested", approval)
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *ApprovalController) decide(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[domain.Approval]("method not allowed"))
		return
	}

	var req models.DecideApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[domain.Approval]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[domain.Approval]("validation failed", err.Error()))
		return
	}

	approval, err := c.service.Decide(r.Context(), req.InstitutionID, req.ApprovalID, req.CheckerStaffID, req.CheckerPIN, req.Approve, req.Note)
	if err != nil {
		response := commons.ErrorResponse[domain.Approval]("failed to decide approval", err.Error())
		respondError(w, r, response, err, start)
		return
	}

	response := commons.SuccessResponse("approval decided", approval)
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
