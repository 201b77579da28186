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

type ReversalService interface {
	Reverse(ctx context.Context, req models.ReverseTransactionRequest) (commons.Response[models.ReversalResult], error)
	OpenDispute(ctx context.Context, req models.OpenDisputeRequest) (commons.Response[domain.Dispute], error)
	StartInvestigation(ctx context.Context, institutionID string, disputeID string) error
	ResolveDispute(ctx context.Context, req models.ResolveDisputeRequest) (commons.Response[domain.Dispute], error)
}

type ReversalController struct {
	service ReversalService
}

func NewReversalController(service ReversalService) *ReversalController {
	return &ReversalController{service: service}
}

func (c *ReversalController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("/reversals", wrap(c.reverse))
	mux.Handle("/disputes", wrap(c.openDispute))
	mux.Handle("/disputes/investigate", wrap(c.startInvestigation))
	mux.Handle("/disputes/resolve", wrap(c.resolveDispute))
}

func (c *ReversalController) reverse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.ReversalResult]("method not allowed"))
		return
	}

	var req models.ReverseTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.ReversalResult]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	response, err := c.service.Reverse(r.Context(), req)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *ReversalController) openDispute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[domain.Dispute]("method not allowed"))
		return
	}

	var req models.OpenDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[domain.Dispute]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	response, err := c.service.OpenDispute(r.Context(), req)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

type startInvestigationRequest struct {
	InstitutionID string `json:"institutionId"`
	DisputeID     string `json:"disputeId"`
}

func (c *ReversalController) startInvestigation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[domain.Dispute]("method not allowed"))
		return
	}

	var req startInvestigationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[domain.Dispute]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := c.service.StartInvestigation(r.Context(), req.InstitutionID, req.DisputeID); err != nil {
		response := commons.ErrorResponse[domain.Dispute]("failed to start investigation", err.Error())
		respondError(w, r, response, err, start)
		return
	}

	response := commons.Response[domain.Dispute]{Success: true, Message: "investigation started"}
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *ReversalController) resolveDispute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[domain.Dispute]("method not allowed"))
		return
	}

	var req models.ResolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[domain.Dispute]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	response, err := c.service.ResolveDispute(r.Context(), req)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
