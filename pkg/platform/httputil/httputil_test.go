package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "donationpool/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("connection reset"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("pool errors include description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeNothingToWithdraw, "no funds to withdraw"))

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "nothing_to_withdraw" {
			t.Fatalf("expected error code nothing_to_withdraw, got %q", body["error"])
		}
		if body["error_description"] != "no funds to withdraw" {
			t.Fatalf("expected error_description to be returned")
		}
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeNotAuthorized:   http.StatusForbidden,
		dErrors.CodeUnauthorized:    http.StatusUnauthorized,
		dErrors.CodeInvalidAmount:   http.StatusBadRequest,
		dErrors.CodeNotFound:        http.StatusNotFound,
		dErrors.CodeAlreadyActive:   http.StatusConflict,
		dErrors.CodeShelterInactive: http.StatusUnprocessableEntity,
		dErrors.CodeTransferFailed:  http.StatusBadGateway,
		dErrors.CodeUnavailable:     http.StatusServiceUnavailable,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
