// Package prices keeps the per-symbol price cache current.
package prices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/exchanges"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// DefaultStaleAfter is how old a cached price may get before it is refreshed
	DefaultStaleAfter = 15 * time.Minute
	// DefaultBulkDelay is the pause between refreshes in RefreshAll
	DefaultBulkDelay = 500 * time.Millisecond
	// DefaultQuoteCurrency is assumed when the provider profile is unavailable
	DefaultQuoteCurrency = "USD"

	moduleName = "prices"
)

// Config tunes the synchronizer
type Config struct {
	StaleAfter time.Duration
	BulkDelay  time.Duration
}

// Service reads and refreshes cached prices
type Service struct {
	cache      domain.PriceCache
	provider   domain.QuoteProvider
	events     *events.Manager
	log        zerolog.Logger
	staleAfter time.Duration
	bulkDelay  time.Duration
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewService creates a new price synchronizer. eventManager may be nil.
func NewService(
	cache domain.PriceCache,
	provider domain.QuoteProvider,
	eventManager *events.Manager,
	cfg Config,
	log zerolog.Logger,
) *Service {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.BulkDelay < 0 {
		cfg.BulkDelay = 0
	}
	return &Service{
		cache:      cache,
		provider:   provider,
		events:     eventManager,
		log:        log.With().Str("service", "prices").Logger(),
		staleAfter: cfg.StaleAfter,
		bulkDelay:  cfg.BulkDelay,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// GetCurrentPrice returns the cached price without touching the network.
// It returns nil, nil when nothing is cached.
func (s *Service) GetCurrentPrice(ctx context.Context, symbol string) (*domain.CurrentPrice, error) {
	normalized, err := exchanges.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.cache.GetCurrentPrice(ctx, normalized)
}

// ListPrices returns every cached price ordered by symbol
func (s *Service) ListPrices(ctx context.Context) ([]domain.CurrentPrice, error) {
	return s.cache.ListCurrentPrices(ctx)
}

// IsStale reports whether p is missing or older than the staleness threshold
func (s *Service) IsStale(p *domain.CurrentPrice) bool {
	if p == nil {
		return true
	}
	return s.now().Sub(p.LastUpdated) > s.staleAfter
}

// RefreshPrice fetches a new price and stores it.
//
// Foreign symbols are never quoted; the cached row is returned, or an
// ErrUnsupportedExchange error when there is none. Provider failures come
// back as *domain.PriceError. Cache failures wrap domain.ErrStore.
func (s *Service) RefreshPrice(ctx context.Context, symbol string) (*domain.CurrentPrice, error) {
	normalized, err := exchanges.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	if _, suffix, ok := exchanges.SplitSuffix(normalized); ok {
		return s.foreignPrice(ctx, normalized, suffix)
	}

	quote, err := s.provider.GetQuote(ctx, normalized)
	if err != nil {
		return nil, s.refreshFailed(normalized, err)
	}
	if quote == nil || quote.CurrentPrice.IsZero() {
		return nil, s.refreshFailed(normalized, domain.ErrNoData)
	}

	currency, exchange := DefaultQuoteCurrency, ""
	profile, err := s.provider.GetProfile(ctx, normalized)
	switch {
	case err != nil:
		s.log.Debug().Err(err).Str("symbol", normalized).Msg("Profile lookup failed, using defaults")
	case profile != nil:
		if profile.Currency != "" {
			currency = strings.ToUpper(profile.Currency)
		}
		exchange = profile.Exchange
	}

	row := domain.CurrentPrice{
		Symbol:      normalized,
		Price:       quote.CurrentPrice,
		Currency:    currency,
		Exchange:    exchange,
		LastUpdated: s.now().UTC(),
	}
	if err := s.cache.UpsertCurrentPrice(ctx, row); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("symbol", normalized).
		Str("price", row.Price.String()).
		Str("currency", row.Currency).
		Msg("Price refreshed")
	s.events.Emit(events.PriceUpdated, moduleName, map[string]interface{}{
		"symbol":   row.Symbol,
		"price":    row.Price.String(),
		"currency": row.Currency,
		"source":   "provider",
	})

	return &row, nil
}

func (s *Service) foreignPrice(ctx context.Context, symbol, suffix string) (*domain.CurrentPrice, error) {
	cached, err := s.cache.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}
	return nil, &domain.PriceError{
		Symbol: symbol,
		Kind:   domain.ErrUnsupportedExchange,
		Message: fmt.Sprintf(
			"no price for %s: exchange %s is not covered by the quote provider, enter the price manually",
			symbol, suffix,
		),
	}
}

// refreshFailed turns a provider failure into a symbol-specific PriceError
func (s *Service) refreshFailed(symbol string, err error) error {
	pe := &domain.PriceError{Symbol: symbol, Cause: err}
	switch {
	case errors.Is(err, domain.ErrNoData):
		pe.Kind = domain.ErrNoData
		pe.Cause = nil
		pe.Message = fmt.Sprintf("no data available for %s", symbol)
	case errors.Is(err, domain.ErrRateLimited):
		pe.Kind = domain.ErrRateLimited
		pe.Message = fmt.Sprintf("rate limited while refreshing %s, retry later", symbol)
	case errors.Is(err, domain.ErrAccessDenied):
		pe.Kind = domain.ErrAccessDenied
		pe.Message = fmt.Sprintf("access denied while refreshing %s, check the quote provider API key", symbol)
	default:
		pe.Message = fmt.Sprintf("failed to refresh price for %s: %s", symbol, err.Error())
	}

	s.events.Emit(events.PriceRefreshFailed, moduleName, map[string]interface{}{
		"symbol": symbol,
		"error":  pe.Message,
	})
	return pe
}

// SetManualPrice stores a user-entered price. Foreign symbols record their
// suffix as the exchange so the holding can still be placed geographically.
func (s *Service) SetManualPrice(ctx context.Context, symbol string, price decimal.Decimal, currency string) (*domain.CurrentPrice, error) {
	normalized, err := exchanges.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, domain.NewValidationError("price must not be negative, got %s", price.String())
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultQuoteCurrency
	}
	if len(currency) != 3 {
		return nil, domain.NewValidationError("currency must be a 3-letter code, got %q", currency)
	}

	row := domain.CurrentPrice{
		Symbol:      normalized,
		Price:       price,
		Currency:    currency,
		LastUpdated: s.now().UTC(),
	}
	if _, suffix, ok := exchanges.SplitSuffix(normalized); ok {
		row.Exchange = suffix
	} else if cached, err := s.cache.GetCurrentPrice(ctx, normalized); err != nil {
		return nil, err
	} else if cached != nil {
		row.Exchange = cached.Exchange
	}

	if err := s.cache.UpsertCurrentPrice(ctx, row); err != nil {
		return nil, err
	}

	s.log.Info().Str("symbol", normalized).Str("price", price.String()).Msg("Manual price set")
	s.events.Emit(events.PriceUpdated, moduleName, map[string]interface{}{
		"symbol":   row.Symbol,
		"price":    row.Price.String(),
		"currency": row.Currency,
		"source":   "manual",
	})
	return &row, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
