// Package handler exposes the messaging core over HTTP and websockets.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/capitalize-ai/marketplace-messaging/internal/errors"
	"github.com/capitalize-ai/marketplace-messaging/internal/model"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, model.ErrInvalidConversation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrAccountSuspended),
		errors.Is(err, model.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
