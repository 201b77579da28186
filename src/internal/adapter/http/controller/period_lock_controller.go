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

type PeriodLockService interface {
	Lock(ctx context.Context, req models.LockPeriodRequest) (commons.Response[domain.LedgerLockPeriod], error)
	Unlock(ctx context.Context, req models.UnlockPeriodRequest) (commons.Response[domain.LedgerLockPeriod], error)
}

type PeriodLockController struct {
	service PeriodLockService
}

func NewPeriodLockController(service PeriodLockService) *PeriodLockController {
	return &PeriodLockController{service: service}
}

func (c *PeriodLockController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("/period-locks", wrap(c.lock))
	mux.Handle("/period-locks/unlock", wrap(c.unlock))
}

func (c *PeriodLockController) lock(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[domain.LedgerLockPeriod]("method not allowed"))
		return
	}

	var req models.LockPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[domain.LedgerLockPeriod]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	response, err := c.service.Lock(r.Context(), req)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *PeriodLockController) unlock(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[domain.LedgerLockPeriod]("method not allowed"))
		return
	}

	var req models.UnlockPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[domain.LedgerLockPeriod]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	response, err := c.service.Unlock(r.Context(), req)
	if err != nil {
		respondError(w, r, response, err, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
