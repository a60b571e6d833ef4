package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "donationpool/pkg/domain-errors"
)

// ErrorResponse is the JSON body for every failed request.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status. Internal errors never
// leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusFor(code)
	resp := ErrorResponse{Error: string(code)}
	if status != http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.Description = de.Message
		}
	}
	WriteJSON(w, status, resp)
}

// StatusFor returns the HTTP status used for a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidIdentity, dErrors.CodeInvalidAmount:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotAuthorized:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeAlreadyActive, dErrors.CodeAlreadyInitialized,
		dErrors.CodeNoActiveShelters, dErrors.CodeNothingToWithdraw:
		return http.StatusConflict
	case dErrors.CodeShelterInactive, dErrors.CodeOverflow:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTransferFailed:
		return http.StatusBadGateway
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
