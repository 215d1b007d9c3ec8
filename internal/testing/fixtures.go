package testing

import (
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/shopspring/decimal"
)

// Day returns midnight UTC of the given date
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Buy builds a BUY transaction. Quantity and price are decimal strings.
func Buy(symbol, quantity, price string, date time.Time) domain.Transaction {
	return newTransaction(symbol, quantity, price, date, domain.KindBuy)
}

// Sell builds a SELL transaction at price.
func Sell(symbol, quantity, price string, date time.Time) domain.Transaction {
	return newTransaction(symbol, quantity, price, date, domain.KindSell)
}

func newTransaction(symbol, quantity, price string, date time.Time, kind domain.TransactionKind) domain.Transaction {
	return domain.Transaction{
		Symbol:   symbol,
		Quantity: decimal.RequireFromString(quantity),
		Price:    decimal.RequireFromString(price),
		Date:     date,
		Kind:     kind,
	}
}

// Price builds a cached price row
func Price(symbol, price, currency, exchange string, updated time.Time) domain.CurrentPrice {
	return domain.CurrentPrice{
		Symbol:      symbol,
		Price:       decimal.RequireFromString(price),
		Currency:    currency,
		Exchange:    exchange,
		LastUpdated: updated,
	}
}
