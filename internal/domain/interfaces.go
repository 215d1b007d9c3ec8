package domain

import "context"

// TransactionStore is read/write access to the transaction ledger.
// Implementations wrap every database failure in ErrStore.
type TransactionStore interface {
	// List returns matching transactions, most recent first
	List(ctx context.Context, filter TransactionFilter) (*TransactionPage, error)

	// Get returns the transaction or an error wrapping ErrNotFound
	Get(ctx context.Context, id string) (*Transaction, error)

	Insert(ctx context.Context, t *Transaction) error

	// Update applies the patch over the stored row and returns the replacement
	Update(ctx context.Context, id string, patch TransactionPatch) (*Transaction, error)

	Delete(ctx context.Context, id string) error

	// UniqueSymbols returns the distinct symbols in the ledger, sorted
	UniqueSymbols(ctx context.Context) ([]string, error)
}

// PriceCache stores the last known price per symbol
type PriceCache interface {
	// GetCurrentPrice returns nil, nil when the symbol has no cached price
	GetCurrentPrice(ctx context.Context, symbol string) (*CurrentPrice, error)

	// UpsertCurrentPrice replaces the row for p.Symbol
	UpsertCurrentPrice(ctx context.Context, p CurrentPrice) error

	ListCurrentPrices(ctx context.Context) ([]CurrentPrice, error)
}

// QuoteProvider looks up instruments and quotes over the network.
// Errors wrap ErrRateLimited or ErrAccessDenied when the provider reports them.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetProfile(ctx context.Context, symbol string) (*InstrumentProfile, error)
}
