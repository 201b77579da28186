package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusForError maps service sentinel errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, commons.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, commons.ErrDuplicateReference),
		errors.Is(err, commons.ErrReferenceConflict),
		errors.Is(err, commons.ErrAlreadyReversed),
		errors.Is(err, commons.ErrInvalidStateTransition),
		errors.Is(err, commons.ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, commons.ErrInsufficientFunds),
		errors.Is(err, commons.ErrLimitExceeded),
		errors.Is(err, commons.ErrAccountFrozen),
		errors.Is(err, commons.ErrAccountClosed),
		errors.Is(err, commons.ErrAccountNotActive),
		errors.Is(err, commons.ErrNotCompleted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, commons.ErrPeriodLocked):
		return http.StatusLocked
	case errors.Is(err, commons.ErrApprovalRequired),
		errors.Is(err, commons.ErrSelfApproval):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError picks the status from the response envelope and the sentinel
// chain.
func respondError[T any](w http.ResponseWriter, r *http.Request, response commons.Response[T], err error, start time.Time) {
	status := statusForError(err)
	if response.Message == "validation failed" {
		status = http.StatusBadRequest
	}
	logError(r, err, logger.Fields{"message": response.Message})
	writeJSON(w, status, response)
	logResponse(r, status, response, start)
}

func logRequest(r *http.Request, payload any) {
	logger.Info("http request", logger.Fields{
		"method":  r.Method,
		"path":    r.URL.Path,
		"query":   r.URL.RawQuery,
		"payload": logger.SanitizePayload(payload),
	})
}

func logResponse(r *http.Request, status int, payload any, start time.Time) {
	logger.Info("http response", logger.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     status,
		"durationMs": time.Since(start).Milliseconds(),
		"response":   logger.SanitizePayload(payload),
	})
}

func logError(r *http.Request, err error, extra logger.Fields) {
	fields := logger.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"query":  r.URL.RawQuery,
	}
	for k, v := range extra {
		fields[k] = v
	}
	logger.Error("http handler error", err, fields)
}
