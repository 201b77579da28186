package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/middleware"
)

func protectedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBasicAuthAllowsValidCredentials(t *testing.T) {
	handler := middleware.BasicAuth("channel", "key")(protectedHandler())

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.SetBasicAuth("channel", "key")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBasicAuthRejectsMissingCredentials(t *testing.T) {
	handler := middleware.BasicAuth("channel", "key")(protectedHandler())

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBasicAuthRejectsWrongKey(t *testing.T) {
	handler := middleware.BasicAuth("channel", "key")(protectedHandler())

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.SetBasicAuth("channel", "wrong")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBasicAuthFailsClosedWithoutServerConfig(t *testing.T) {
	handler := middleware.BasicAuth("", "")(protectedHandler())

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.SetBasicAuth("channel", "key")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
