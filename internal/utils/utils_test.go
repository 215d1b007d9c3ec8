package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single value", input: "AAPL", expected: []string{"AAPL"}},
		{name: "varied spacing", input: "AAPL,  MSFT , BMW.DE", expected: []string{"AAPL", "MSFT", "BMW.DE"}},
		{name: "only separators", input: " , ,", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}

func TestParseSymbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "BMW.DE"}, ParseSymbols("aapl, bmw.de,AAPL"))
	assert.Nil(t, ParseSymbols(""))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"store", domain.NewStoreError("insert", errors.New("disk full")), http.StatusInternalServerError, "store"},
		{"validation", domain.NewValidationError("bad symbol"), http.StatusBadRequest, "validation"},
		{"not found", fmt.Errorf("transaction x: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{"rate limited", &domain.PriceError{Kind: domain.ErrRateLimited}, http.StatusTooManyRequests, "rate_limited"},
		{"access denied", &domain.PriceError{Kind: domain.ErrAccessDenied}, http.StatusBadGateway, "access_denied"},
		{"no data", &domain.PriceError{Kind: domain.ErrNoData}, http.StatusUnprocessableEntity, "no_data"},
		{"unsupported", &domain.PriceError{Kind: domain.ErrUnsupportedExchange}, http.StatusUnprocessableEntity, "unsupported_exchange"},
		{"generic", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestWriteError_HidesStoreCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zerolog.Nop(), domain.NewStoreError("insert", errors.New("disk full")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal storage error", body.Error)
	assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestWriteError_KeepsMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zerolog.Nop(), &domain.PriceError{
		Kind:    domain.ErrRateLimited,
		Message: "rate limited while refreshing AAPL, retry later",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate limited while refreshing AAPL, retry later", body.Error)
	assert.Equal(t, "rate_limited", body.Kind)
}
