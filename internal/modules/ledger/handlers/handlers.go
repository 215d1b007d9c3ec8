// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Handler handles ledger HTTP requests
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

type transactionRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Date     string          `json:"transaction_date"`
	Kind     string          `json:"kind"`
	Notes    string          `json:"notes"`
}

type patchRequest struct {
	Symbol   *string          `json:"symbol"`
	Quantity *decimal.Decimal `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
	Date     *string          `json:"transaction_date"`
	Kind     *string          `json:"kind"`
	Notes    *string          `json:"notes"`
}

// HandleList handles GET /api/transactions
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.TransactionFilter{
		Symbol: q.Get("symbol"),
		Kind:   domain.TransactionKind(q.Get("kind")),
		Limit:  defaultLimit,
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			utils.WriteBadRequest(w, h.log, "limit must be a non-negative integer")
			return
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			utils.WriteBadRequest(w, h.log, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}
	for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		t, err := parseDate(v)
		if err != nil {
			utils.WriteBadRequest(w, h.log, param+" must be a date (YYYY-MM-DD or RFC 3339)")
			return
		}
		*dst = &t
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, page)
}

// HandleGet handles GET /api/transactions/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, t)
}

// HandleCreate handles POST /api/transactions
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteBadRequest(w, h.log, "Invalid request body: "+err.Error())
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			utils.WriteBadRequest(w, h.log, "transaction_date must be a date (YYYY-MM-DD or RFC 3339)")
			return
		}
		date = parsed
	}

	t, err := h.service.Record(r.Context(), ledger.RecordRequest{
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Price:    req.Price,
		Date:     date,
		Kind:     domain.TransactionKind(req.Kind),
		Notes:    req.Notes,
	})
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusCreated, t)
}

// HandleUpdate handles PUT /api/transactions/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteBadRequest(w, h.log, "Invalid request body: "+err.Error())
		return
	}

	patch := domain.TransactionPatch{
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Price:    req.Price,
		Notes:    req.Notes,
	}
	if req.Kind != nil {
		kind := domain.TransactionKind(*req.Kind)
		patch.Kind = &kind
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			utils.WriteBadRequest(w, h.log, "transaction_date must be a date (YYYY-MM-DD or RFC 3339)")
			return
		}
		patch.Date = &date
	}

	t, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, t)
}

// HandleDelete handles DELETE /api/transactions/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
