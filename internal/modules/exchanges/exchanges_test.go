package exchanges

import (
	"errors"
	"testing"

	"github.com/aristath/folio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountryForExchange(t *testing.T) {
	tests := []struct {
		exchange string
		want     string
	}{
		{"NASDAQ NMS - GLOBAL MARKET", "United States"},
		{"NEW YORK STOCK EXCHANGE, INC.", "United States"},
		{"DE", "Germany"},
		{"XETRA", "Germany"},
		{"L", "United Kingdom"},
		{"PA", "France"},
		{"T", "Japan"},
		{"HK", "Hong Kong"},
		{"TO", "Canada"},
		{"AX", "Australia"},
		// case-sensitive
		{"de", Other},
		{"Nasdaq", Other},
		{"MARS EXCHANGE", Other},
		{"", Other},
	}

	for _, tt := range tests {
		t.Run(tt.exchange, func(t *testing.T) {
			assert.Equal(t, tt.want, CountryForExchange(tt.exchange))
		})
	}
}

func TestExchangeCountries_NoEmptyValues(t *testing.T) {
	for exchange, country := range ExchangeCountries {
		assert.NotEmpty(t, exchange)
		assert.NotEmpty(t, country, exchange)
		assert.NotEqual(t, Other, country, exchange)
	}
}

func TestSplitSuffix(t *testing.T) {
	tests := []struct {
		symbol     string
		wantBase   string
		wantSuffix string
		wantOK     bool
	}{
		{"BMW.DE", "BMW", "DE", true},
		{"VOD.L", "VOD", "L", true},
		{"A.B.C", "A.B", "C", true},
		{"AAPL", "AAPL", "", false},
		{".DE", ".DE", "", false},
		{"AAPL.", "AAPL.", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			base, suffix, ok := SplitSuffix(tt.symbol)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantSuffix, suffix)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOK, IsForeign(tt.symbol))
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	got, err := NormalizeSymbol("  bmw.de ")
	require.NoError(t, err)
	assert.Equal(t, "BMW.DE", got)

	got, err = NormalizeSymbol("aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got)

	for _, bad := range []string{"", "   ", "AA PL", "$AAPL", "AAPL..DE", "-AAPL"} {
		_, err := NormalizeSymbol(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, domain.ErrValidation), bad)
	}
}
