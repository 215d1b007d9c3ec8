package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes err with the status its kind maps to. Store failures are
// logged and reported without their cause.
func WriteError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status, kind := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		if kind == "store" {
			message = "internal storage error"
		}
	}
	WriteJSON(w, log, status, ErrorResponse{Error: message, Kind: kind})
}

// WriteBadRequest writes a 400 with message
func WriteBadRequest(w http.ResponseWriter, log zerolog.Logger, message string) {
	WriteJSON(w, log, http.StatusBadRequest, ErrorResponse{Error: message, Kind: "validation"})
}

// StatusFor maps the domain error taxonomy to an HTTP status and a short kind label
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrStore):
		return http.StatusInternalServerError, "store"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusBadGateway, "access_denied"
	case errors.Is(err, domain.ErrNoData):
		return http.StatusUnprocessableEntity, "no_data"
	case errors.Is(err, domain.ErrUnsupportedExchange):
		return http.StatusUnprocessableEntity, "unsupported_exchange"
	default:
		return http.StatusInternalServerError, ""
	}
}
