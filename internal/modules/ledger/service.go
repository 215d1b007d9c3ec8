package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/exchanges"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const moduleName = "ledger"

// RecordRequest is a new transaction as entered by the user
type RecordRequest struct {
	Symbol   string                 `json:"symbol"`
	Quantity decimal.Decimal        `json:"quantity"`
	Price    decimal.Decimal        `json:"price"`
	Date     time.Time              `json:"transaction_date"`
	Kind     domain.TransactionKind `json:"kind"`
	Notes    string                 `json:"notes,omitempty"`
}

// Service validates and records ledger transactions
type Service struct {
	store  domain.TransactionStore
	events *events.Manager
	log    zerolog.Logger
	newID  func() string
}

// NewService creates a new ledger service. eventManager may be nil.
func NewService(store domain.TransactionStore, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		events: eventManager,
		log:    log.With().Str("service", "ledger").Logger(),
		newID:  uuid.NewString,
	}
}

// List returns transactions matching filter, most recent first
func (s *Service) List(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	if filter.Symbol != "" {
		symbol, err := exchanges.NormalizeSymbol(filter.Symbol)
		if err != nil {
			return nil, err
		}
		filter.Symbol = symbol
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, domain.NewValidationError("unknown kind %q", filter.Kind)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, domain.NewValidationError("limit and offset must not be negative")
	}
	return s.store.List(ctx, filter)
}

// Get returns one transaction
func (s *Service) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.store.Get(ctx, id)
}

// Record validates req and stores it as a new transaction
func (s *Service) Record(ctx context.Context, req RecordRequest) (*domain.Transaction, error) {
	t := domain.Transaction{
		ID:       s.newID(),
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Price:    req.Price,
		Date:     req.Date.UTC(),
		Kind:     domain.TransactionKind(strings.ToUpper(string(req.Kind))),
		Notes:    strings.TrimSpace(req.Notes),
	}
	if err := validate(&t); err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, &t); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("id", t.ID).
		Str("symbol", t.Symbol).
		Str("kind", string(t.Kind)).
		Str("quantity", t.Quantity.String()).
		Msg("Recorded transaction")
	s.events.Emit(events.TransactionRecorded, moduleName, transactionData(&t))
	return &t, nil
}

// Update applies patch to a stored transaction after validating the result
func (s *Service) Update(ctx context.Context, id string, patch domain.TransactionPatch) (*domain.Transaction, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Kind != nil {
		kind := domain.TransactionKind(strings.ToUpper(string(*patch.Kind)))
		patch.Kind = &kind
	}
	if patch.Date != nil {
		date := patch.Date.UTC()
		patch.Date = &date
	}

	merged := patch.Apply(*current)
	if err := validate(&merged); err != nil {
		return nil, err
	}
	// validate canonicalizes the symbol
	patch.Symbol = &merged.Symbol

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("id", id).Str("symbol", updated.Symbol).Msg("Updated transaction")
	s.events.Emit(events.TransactionUpdated, moduleName, transactionData(updated))
	return updated, nil
}

// Delete removes a transaction
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("id", id).Msg("Deleted transaction")
	s.events.Emit(events.TransactionDeleted, moduleName, map[string]interface{}{"id": id})
	return nil
}

func validate(t *domain.Transaction) error {
	symbol, err := exchanges.NormalizeSymbol(t.Symbol)
	if err != nil {
		return err
	}
	t.Symbol = symbol

	if !t.Quantity.IsPositive() {
		return domain.NewValidationError("quantity must be greater than zero")
	}
	if t.Price.IsNegative() {
		return domain.NewValidationError("price must not be negative")
	}
	if !t.Kind.Valid() {
		return domain.NewValidationError("kind must be BUY or SELL, got %q", t.Kind)
	}
	if t.Date.IsZero() {
		return domain.NewValidationError("transaction date is required")
	}
	return nil
}

func transactionData(t *domain.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"id":       t.ID,
		"symbol":   t.Symbol,
		"kind":     string(t.Kind),
		"quantity": t.Quantity.String(),
		"price":    t.Price.String(),
	}
}
