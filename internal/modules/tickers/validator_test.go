package tickers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aristath/folio/internal/domain"
	testingpkg "github.com/aristath/folio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestValidate_ForeignSuffixSkipsProvider(t *testing.T) {
	provider := new(testingpkg.MockQuoteProvider)
	v := NewValidator(provider, zerolog.Nop())

	got := v.Validate(context.Background(), "bmw.de")

	assert.True(t, got.Valid)
	assert.Equal(t, "BMW.DE", got.Symbol)
	assert.Equal(t, "DE", got.ExchangeName)
	assert.Empty(t, got.Error)
	provider.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestValidate_DomesticFound(t *testing.T) {
	provider := new(testingpkg.MockQuoteProvider)
	provider.On("GetProfile", mock.Anything, "AAPL").Return(&domain.InstrumentProfile{
		Ticker:   "AAPL",
		Name:     "Apple Inc",
		Exchange: "NASDAQ NMS - GLOBAL MARKET",
		Currency: "USD",
	}, nil)
	v := NewValidator(provider, zerolog.Nop())

	got := v.Validate(context.Background(), "aapl")

	assert.True(t, got.Valid)
	assert.Equal(t, "NASDAQ NMS - GLOBAL MARKET", got.ExchangeName)
	assert.Equal(t, "Apple Inc", got.Name)
	provider.AssertExpectations(t)
}

func TestValidate_EmptyProfileIsNotFound(t *testing.T) {
	provider := new(testingpkg.MockQuoteProvider)
	provider.On("GetProfile", mock.Anything, "ZZZZ").Return(&domain.InstrumentProfile{}, nil)
	v := NewValidator(provider, zerolog.Nop())

	got := v.Validate(context.Background(), "ZZZZ")

	assert.False(t, got.Valid)
	assert.Equal(t, domain.ErrNotFound, got.Kind)
	assert.Contains(t, got.Error, "SYMBOL.EXCHANGE")
}

func TestValidate_ProviderFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind error
		wantMsg  string
	}{
		{"rate limited", fmt.Errorf("quote: %w", domain.ErrRateLimited), domain.ErrRateLimited, "retry later"},
		{"access denied", fmt.Errorf("quote: %w", domain.ErrAccessDenied), domain.ErrAccessDenied, "API key"},
		{"generic", errors.New("connection refused"), nil, "failed to validate: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(testingpkg.MockQuoteProvider)
			provider.On("GetProfile", mock.Anything, "MSFT").Return(nil, tt.err)
			v := NewValidator(provider, zerolog.Nop())

			got := v.Validate(context.Background(), "MSFT")

			assert.False(t, got.Valid)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Contains(t, got.Error, tt.wantMsg)
		})
	}
}

func TestValidate_Malformed(t *testing.T) {
	provider := new(testingpkg.MockQuoteProvider)
	v := NewValidator(provider, zerolog.Nop())

	got := v.Validate(context.Background(), "  ")

	assert.False(t, got.Valid)
	assert.Equal(t, domain.ErrValidation, got.Kind)
	provider.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}
