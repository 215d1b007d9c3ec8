// Package handlers provides HTTP handlers for price cache operations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HoldingsRefresher refreshes every currently held symbol
type HoldingsRefresher interface {
	RefreshHoldings(ctx context.Context) (*prices.BulkRefreshResult, error)
}

// Handler handles price HTTP requests
type Handler struct {
	service  *prices.Service
	holdings HoldingsRefresher
	log      zerolog.Logger
}

// NewHandler creates a new prices handler
func NewHandler(service *prices.Service, holdings HoldingsRefresher, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		holdings: holdings,
		log:      log.With().Str("handler", "prices").Logger(),
	}
}

// RegisterRoutes registers all price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/refresh-all", h.HandleRefreshAll)
		r.Get("/{symbol}", h.HandleGet)
		r.Put("/{symbol}", h.HandleSetManual)
		r.Post("/{symbol}/refresh", h.HandleRefresh)
	})
}

// PriceResponse is a cached price with its staleness
type PriceResponse struct {
	domain.CurrentPrice
	Stale bool `json:"stale"`
}

// HandleList handles GET /api/prices
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	cached, err := h.service.ListPrices(r.Context())
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	response := make([]PriceResponse, 0, len(cached))
	for i := range cached {
		response = append(response, PriceResponse{CurrentPrice: cached[i], Stale: h.service.IsStale(&cached[i])})
	}
	utils.WriteJSON(w, h.log, http.StatusOK, response)
}

// HandleGet handles GET /api/prices/{symbol}. It never calls the quote provider.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	p, err := h.service.GetCurrentPrice(r.Context(), symbol)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	if p == nil {
		utils.WriteJSON(w, h.log, http.StatusNotFound, utils.ErrorResponse{
			Error: "no cached price for " + symbol,
			Kind:  "not_found",
		})
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, PriceResponse{CurrentPrice: *p, Stale: h.service.IsStale(p)})
}

// HandleRefresh handles POST /api/prices/{symbol}/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.RefreshPrice(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, PriceResponse{CurrentPrice: *p, Stale: h.service.IsStale(p)})
}

// HandleSetManual handles PUT /api/prices/{symbol}
func (h *Handler) HandleSetManual(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price    *decimal.Decimal `json:"price"`
		Currency string           `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteBadRequest(w, h.log, "Invalid request body: "+err.Error())
		return
	}
	if req.Price == nil {
		utils.WriteBadRequest(w, h.log, "price is required")
		return
	}

	p, err := h.service.SetManualPrice(r.Context(), chi.URLParam(r, "symbol"), *req.Price, req.Currency)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, PriceResponse{CurrentPrice: *p})
}

// HandleRefreshAll handles POST /api/prices/refresh-all.
// Without ?symbols= it refreshes every held symbol.
func (h *Handler) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	var (
		result *prices.BulkRefreshResult
		err    error
	)
	if symbols := utils.ParseSymbols(r.URL.Query().Get("symbols")); symbols != nil {
		result, err = h.service.RefreshAll(r.Context(), symbols)
	} else {
		result, err = h.holdings.RefreshHoldings(r.Context())
	}
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, result)
}
