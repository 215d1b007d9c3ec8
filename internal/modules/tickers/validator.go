// Package tickers decides whether a symbol can be tracked and on which exchange it trades.
package tickers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/exchanges"
	"github.com/rs/zerolog"
)

// Result is the outcome of validating a symbol
type Result struct {
	Symbol       string `json:"symbol"`
	Valid        bool   `json:"valid"`
	ExchangeName string `json:"exchange_name,omitempty"`
	Name         string `json:"name,omitempty"`
	Error        string `json:"error,omitempty"`

	// Kind is the domain error kind behind Error, nil for generic failures
	Kind error `json:"-"`
}

// Validator checks symbols against the quote provider
type Validator struct {
	provider domain.QuoteProvider
	log      zerolog.Logger
}

// NewValidator creates a new ticker validator
func NewValidator(provider domain.QuoteProvider, log zerolog.Logger) *Validator {
	return &Validator{
		provider: provider,
		log:      log.With().Str("service", "tickers").Logger(),
	}
}

// Validate reports whether symbol is usable.
// Foreign symbols (SYMBOL.EXCHANGE) are accepted without a network call since
// the provider does not cover non-domestic exchanges.
func (v *Validator) Validate(ctx context.Context, symbol string) Result {
	normalized, err := exchanges.NormalizeSymbol(symbol)
	if err != nil {
		return Result{Symbol: symbol, Error: err.Error(), Kind: domain.ErrValidation}
	}

	if _, suffix, ok := exchanges.SplitSuffix(normalized); ok {
		return Result{Symbol: normalized, Valid: true, ExchangeName: suffix}
	}

	profile, err := v.provider.GetProfile(ctx, normalized)
	if err != nil {
		v.log.Warn().Err(err).Str("symbol", normalized).Msg("Ticker validation failed")
		return failure(normalized, err)
	}

	if profile == nil || profile.Ticker == "" {
		return Result{
			Symbol: normalized,
			Error:  fmt.Sprintf("symbol %s not found; for non-US listings use SYMBOL.EXCHANGE (e.g. BMW.DE)", normalized),
			Kind:   domain.ErrNotFound,
		}
	}

	return Result{
		Symbol:       normalized,
		Valid:        true,
		ExchangeName: profile.Exchange,
		Name:         profile.Name,
	}
}

func failure(symbol string, err error) Result {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return Result{
			Symbol: symbol,
			Error:  fmt.Sprintf("rate limited while validating %s, retry later", symbol),
			Kind:   domain.ErrRateLimited,
		}
	case errors.Is(err, domain.ErrAccessDenied):
		return Result{
			Symbol: symbol,
			Error:  fmt.Sprintf("access denied while validating %s, check the quote provider API key", symbol),
			Kind:   domain.ErrAccessDenied,
		}
	}
	return Result{Symbol: symbol, Error: fmt.Sprintf("failed to validate: %s", err.Error())}
}
