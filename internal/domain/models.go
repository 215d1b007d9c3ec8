// Package domain provides core domain models and types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the side of a ledger transaction
type TransactionKind string

const (
	KindBuy  TransactionKind = "BUY"
	KindSell TransactionKind = "SELL"
)

// Valid reports whether k is a known kind
func (k TransactionKind) Valid() bool {
	return k == KindBuy || k == KindSell
}

// Transaction is a recorded buy or sell. Amounts are in the reporting currency.
type Transaction struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Date      time.Time       `json:"transaction_date"`
	Kind      TransactionKind `json:"kind"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TransactionFilter narrows a ledger listing. Zero values match everything.
// Limit 0 means no limit.
type TransactionFilter struct {
	Symbol string
	Kind   TransactionKind
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// TransactionPage is one page of a ledger listing. Count is the total number
// of matching rows, independent of Limit and Offset.
type TransactionPage struct {
	Items []Transaction `json:"items"`
	Count int           `json:"count"`
}

// TransactionPatch holds the fields to change on a stored transaction.
// Nil fields keep their stored value.
type TransactionPatch struct {
	Symbol   *string          `json:"symbol,omitempty"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Date     *time.Time       `json:"transaction_date,omitempty"`
	Kind     *TransactionKind `json:"kind,omitempty"`
	Notes    *string          `json:"notes,omitempty"`
}

// Apply returns t with the patch fields replaced
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Symbol != nil {
		t.Symbol = *p.Symbol
	}
	if p.Quantity != nil {
		t.Quantity = *p.Quantity
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	return t
}

// CurrentPrice is the cached price of one symbol
type CurrentPrice struct {
	Symbol      string          `json:"symbol"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Exchange    string          `json:"exchange,omitempty"` // Empty when unknown
	LastUpdated time.Time       `json:"last_updated"`
}

// Quote is the provider's latest trade data for a symbol
type Quote struct {
	CurrentPrice  decimal.Decimal `json:"current_price"`
	Change        decimal.Decimal `json:"change"`
	PercentChange decimal.Decimal `json:"percent_change"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Open          decimal.Decimal `json:"open"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Timestamp     time.Time       `json:"timestamp"`
}

// InstrumentProfile describes a listed instrument.
// An empty Ticker means the provider does not know the symbol.
type InstrumentProfile struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Country  string `json:"country"`
}

// Position is the running quantity and accumulated cost of one symbol.
// Quantity may be zero or negative, such positions are not held.
type Position struct {
	Symbol          string          `json:"symbol"`
	Quantity        decimal.Decimal `json:"quantity"`
	AccumulatedCost decimal.Decimal `json:"accumulated_cost"`
}

// PriceSource records where a holding's price came from
type PriceSource string

const (
	PriceSourceCache       PriceSource = "cache"       // Fresh cached price
	PriceSourceLive        PriceSource = "live"        // Refreshed from the provider
	PriceSourceStaleCache  PriceSource = "stale_cache" // Refresh failed, older cached price used
	PriceSourceTransaction PriceSource = "transaction" // Price of the latest transaction
	PriceSourceNone        PriceSource = "none"        // No price available, valued at zero
)

// Holding is a held position valued at its current price
type Holding struct {
	Symbol          string          `json:"symbol"`
	Quantity        decimal.Decimal `json:"quantity"`
	AverageCost     decimal.Decimal `json:"average_cost"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
	Exchange        string          `json:"exchange,omitempty"`
	Country         string          `json:"country"`
	PriceSource     PriceSource     `json:"price_source"`
	PriceUpdatedAt  *time.Time      `json:"price_updated_at,omitempty"`
}

// PortfolioSummary is the valued portfolio, holdings sorted by value descending
type PortfolioSummary struct {
	Holdings             []Holding       `json:"holdings"`
	TotalValue           decimal.Decimal `json:"total_value"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent"`
	Currency             string          `json:"currency"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// GeographicalAllocation is the portfolio value held in one country
type GeographicalAllocation struct {
	Country    string          `json:"country"`
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
}
