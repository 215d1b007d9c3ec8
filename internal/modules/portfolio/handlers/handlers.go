// Package handlers provides HTTP handlers for portfolio valuation.
package handlers

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/allocation"
	"github.com/aristath/folio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Valuer is the valuation engine
type Valuer interface {
	GetPortfolioSummary(ctx context.Context, forceRefresh bool) (*domain.PortfolioSummary, error)
	GetPositions(ctx context.Context) (map[string]*domain.Position, error)
}

// Handler handles portfolio HTTP requests
type Handler struct {
	valuer     Valuer
	allocation *allocation.Service
	log        zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(valuer Valuer, allocationService *allocation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		valuer:     valuer,
		allocation: allocationService,
		log:        log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/summary", h.HandleGetSummary)
		r.Get("/positions", h.HandleGetPositions)

		r.Route("/allocation", func(r chi.Router) {
			r.Get("/geography", h.HandleGetGeography)
			r.Get("/concentration", h.HandleGetConcentration)
		})
	})
}

// HandleGetSummary handles GET /api/portfolio/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	force, ok := h.forceRefresh(w, r)
	if !ok {
		return
	}

	summary, err := h.valuer.GetPortfolioSummary(r.Context(), force)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, summary)
}

// HandleGetPositions handles GET /api/portfolio/positions.
// Closed positions are included.
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.valuer.GetPositions(r.Context())
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	list := make([]*domain.Position, 0, len(positions))
	for _, p := range positions {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Symbol < list[j].Symbol })
	utils.WriteJSON(w, h.log, http.StatusOK, list)
}

// HandleGetGeography handles GET /api/portfolio/allocation/geography
func (h *Handler) HandleGetGeography(w http.ResponseWriter, r *http.Request) {
	force, ok := h.forceRefresh(w, r)
	if !ok {
		return
	}

	allocations, err := h.allocation.GetGeographicalAllocation(r.Context(), force)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, allocations)
}

// HandleGetConcentration handles GET /api/portfolio/allocation/concentration
func (h *Handler) HandleGetConcentration(w http.ResponseWriter, r *http.Request) {
	force, ok := h.forceRefresh(w, r)
	if !ok {
		return
	}

	metrics, err := h.allocation.GetConcentration(r.Context(), force)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, metrics)
}

func (h *Handler) forceRefresh(w http.ResponseWriter, r *http.Request) (bool, bool) {
	v := r.URL.Query().Get("refresh")
	if v == "" {
		return false, true
	}
	force, err := strconv.ParseBool(v)
	if err != nil {
		utils.WriteBadRequest(w, h.log, "refresh must be true or false")
		return false, false
	}
	return force, true
}
