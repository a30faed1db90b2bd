// Package respond centralizes JSON response writing and the mapping from
// domain failure kinds to HTTP statuses.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/harborpost/harborpost/internal/model"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

// WriteDomainError maps the five domain failure kinds onto fixed HTTP
// statuses. Anything outside the taxonomy is an internal failure and its
// detail stays out of the response body.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case model.IsBadRequest(err):
		WriteError(w, http.StatusBadRequest, err.Error())
	case model.IsUnauthorized(err):
		WriteError(w, http.StatusUnauthorized, err.Error())
	case model.IsForbidden(err):
		WriteError(w, http.StatusForbidden, err.Error())
	case model.IsNotFound(err):
		WriteError(w, http.StatusNotFound, err.Error())
	case model.IsConflict(err):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Stack().Err(err).Msg("unexpected error")
		WriteError(w, http.StatusInternalServerError, "something went wrong")
	}
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}
