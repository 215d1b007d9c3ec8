package portfolio

import (
	"context"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/exchanges"
)

// priceSupplier is one step of the price fallback chain. A supplier returns
// nil, nil to decline; an error is recovered by moving to the next supplier,
// except store errors which abort the valuation.
type priceSupplier struct {
	source domain.PriceSource
	supply func(ctx context.Context) (*domain.CurrentPrice, error)
}

// priceOutcome is the tagged result of resolving one symbol's price.
// price is nil when every supplier declined.
type priceOutcome struct {
	symbol string
	price  *domain.CurrentPrice
	source domain.PriceSource
	err    error
}

// fallbackChain lists the suppliers tried for a symbol, in order:
// fresh cache, live refresh, previously cached row, latest transaction.
func (s *Service) fallbackChain(symbol string, cached *domain.CurrentPrice, latest *domain.Transaction, forceRefresh bool) []priceSupplier {
	chain := []priceSupplier{
		{
			source: domain.PriceSourceCache,
			supply: func(ctx context.Context) (*domain.CurrentPrice, error) {
				if cached == nil || forceRefresh || s.prices.IsStale(cached) {
					return nil, nil
				}
				return cached, nil
			},
		},
	}

	// Foreign symbols are never quoted, a refresh could only return the cached row
	if !exchanges.IsForeign(symbol) {
		chain = append(chain, priceSupplier{
			source: domain.PriceSourceLive,
			supply: func(ctx context.Context) (*domain.CurrentPrice, error) {
				return s.prices.RefreshPrice(ctx, symbol)
			},
		})
	}

	return append(chain,
		priceSupplier{
			source: domain.PriceSourceStaleCache,
			supply: func(ctx context.Context) (*domain.CurrentPrice, error) {
				return cached, nil
			},
		},
		priceSupplier{
			source: domain.PriceSourceTransaction,
			supply: func(ctx context.Context) (*domain.CurrentPrice, error) {
				if latest == nil {
					return nil, nil
				}
				return &domain.CurrentPrice{
					Symbol:      symbol,
					Price:       latest.Price,
					Currency:    s.reportingCurrency,
					LastUpdated: latest.Date,
				}, nil
			},
		},
	)
}

// resolvePrice walks the fallback chain for symbol
func (s *Service) resolvePrice(ctx context.Context, symbol string, latest *domain.Transaction, forceRefresh bool) priceOutcome {
	cached, err := s.cache.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return priceOutcome{symbol: symbol, err: err}
	}

	for _, supplier := range s.fallbackChain(symbol, cached, latest, forceRefresh) {
		price, err := supplier.supply(ctx)
		if err != nil {
			if domain.IsStoreError(err) {
				return priceOutcome{symbol: symbol, err: err}
			}
			s.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Str("source", string(supplier.source)).
				Msg("Price supplier failed, falling back")
			continue
		}
		if price != nil {
			return priceOutcome{symbol: symbol, price: price, source: supplier.source}
		}
	}

	s.log.Warn().Str("symbol", symbol).Msg("No price available, valuing at zero")
	return priceOutcome{symbol: symbol, source: domain.PriceSourceNone}
}
