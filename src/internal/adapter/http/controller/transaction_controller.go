package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
)

type TransactionService interface {
	SubmitTransaction(ctx context.Context, req models.SubmitTransactionRequest) (commons.Response[models.TransactionResult], error)
	CancelTransaction(ctx context.Context, req models.CancelTransactionRequest) (commons.Response[models.TransactionResult], error)
}

type TransactionController struct {
	service TransactionService
}

func NewTransactionController(service TransactionService) *TransactionController {
	return &TransactionController{service: service}
}

func (c *TransactionController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("/transactions", wrap(c.submit))
	mux.Handle("/transactions/cancel", wrap(c.cancel))
}

func (c *TransactionController) submit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.TransactionResult]("method not allowed"))
		return
	}

	var req models.SubmitTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.TransactionResult]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	response, err := c.service.SubmitTransaction(r.Context(), req)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) cancel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.TransactionResult]("method not allowed"))
		return
	}

	var req models.CancelTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.TransactionResult]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	response, err := c.service.CancelTransaction(r.Context(), req)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
