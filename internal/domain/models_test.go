package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionPatch_Apply(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	stored := Transaction{
		ID:       "tx-1",
		Symbol:   "AAPL",
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(150),
		Date:     date,
		Kind:     KindBuy,
		Notes:    "first lot",
	}

	qty := decimal.NewFromInt(4)
	sell := KindSell
	empty := ""
	got := TransactionPatch{Quantity: &qty, Kind: &sell, Notes: &empty}.Apply(stored)

	assert.Equal(t, "tx-1", got.ID)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.True(t, got.Quantity.Equal(qty))
	assert.True(t, got.Price.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, date, got.Date)
	assert.Equal(t, KindSell, got.Kind)
	assert.Empty(t, got.Notes)

	// original is untouched
	assert.Equal(t, KindBuy, stored.Kind)
	assert.Equal(t, "first lot", stored.Notes)
}

func TestTransactionPatch_ApplyEmpty(t *testing.T) {
	stored := Transaction{ID: "tx-1", Symbol: "MSFT", Quantity: decimal.NewFromInt(1), Kind: KindBuy}
	assert.Equal(t, stored, TransactionPatch{}.Apply(stored))
}
