package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
)

type LoanService interface {
	CreateLoan(ctx context.Context, req models.CreateLoanRequest) (commons.Response[models.ScheduleResponse], error)
	GetSchedule(ctx context.Context, institutionID string, loanID string) (commons.Response[models.ScheduleResponse], error)
	ApplyRepayment(ctx context.Context, req models.ApplyRepaymentRequest) (commons.Response[models.RepaymentResult], error)
}

type LoanController struct {
	service LoanService
}

func NewLoanController(service LoanService) *LoanController {
	return &LoanController{service: service}
}

func (c *LoanController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("/loans", wrap(c.createLoan))
	mux.Handle("/loans/schedule", wrap(c.getSchedule))
	mux.Handle("/loans/repayments", wrap(c.applyRepayment))
}

func (c *LoanController) createLoan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.ScheduleResponse]("method not allowed"))
		return
	}

	var req models.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.ScheduleResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	response, err := c.service.CreateLoan(r.Context(), req)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *LoanController) getSchedule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.ScheduleResponse]("method not allowed"))
		return
	}

	institutionID := r.URL.Query().Get("institutionId")
	loanID := r.URL.Query().Get("loanId")

	response, err := c.service.GetSchedule(r.Context(), institutionID, loanID)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *LoanController) applyRepayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.RepaymentResult]("method not allowed"))
		return
	}

	var req models.ApplyRepaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.RepaymentResult]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	response, err := c.service.ApplyRepayment(r.Context(), req)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
