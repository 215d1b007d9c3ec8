// Package handlers provides HTTP handlers for ticker lookups.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/tickers"
	"github.com/aristath/folio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// TickerLister lists the symbols present in the ledger
type TickerLister interface {
	GetUniqueTickers(ctx context.Context) ([]string, error)
}

// Handler handles ticker HTTP requests
type Handler struct {
	validator *tickers.Validator
	lister    TickerLister
	log       zerolog.Logger
}

// NewHandler creates a new tickers handler
func NewHandler(validator *tickers.Validator, lister TickerLister, log zerolog.Logger) *Handler {
	return &Handler{
		validator: validator,
		lister:    lister,
		log:       log.With().Str("handler", "tickers").Logger(),
	}
}

// RegisterRoutes registers all ticker routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickers", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{symbol}/validate", h.HandleValidate)
	})
}

// HandleList handles GET /api/tickers
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.lister.GetUniqueTickers(r.Context())
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"tickers": symbols,
		"count":   len(symbols),
	})
}

// HandleValidate handles GET /api/tickers/{symbol}/validate.
// An unknown or malformed symbol is a successful answer with valid=false;
// provider failures carry their own status.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	result := h.validator.Validate(r.Context(), chi.URLParam(r, "symbol"))

	status := http.StatusOK
	switch {
	case result.Valid:
	case result.Kind == nil:
		status = http.StatusBadGateway
	case errors.Is(result.Kind, domain.ErrRateLimited), errors.Is(result.Kind, domain.ErrAccessDenied):
		status, _ = utils.StatusFor(result.Kind)
	}
	utils.WriteJSON(w, h.log, status, result)
}
