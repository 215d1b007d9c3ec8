// Package portfolio values the ledger's positions at current prices.
package portfolio

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/exchanges"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Cost basis modes
const (
	CostBasisStoreOrder    = "store_order"
	CostBasisChronological = "chronological"
)

var hundred = decimal.NewFromInt(100)

// PriceSynchronizer is the part of prices.Service the valuation needs
type PriceSynchronizer interface {
	RefreshPrice(ctx context.Context, symbol string) (*domain.CurrentPrice, error)
	IsStale(p *domain.CurrentPrice) bool
	RefreshAll(ctx context.Context, symbols []string) (*prices.BulkRefreshResult, error)
}

// Config holds valuation settings
type Config struct {
	ReportingCurrency string // Currency of ledger amounts, used for transaction-derived prices
	CostBasisMode     string // CostBasisStoreOrder (default) or CostBasisChronological
}

// Service builds portfolio summaries.
//
// Positions and holdings are never stored; every summary is recomputed from
// the full ledger plus the price cache.
type Service struct {
	transactions      domain.TransactionStore
	cache             domain.PriceCache
	prices            PriceSynchronizer
	aggregate         Aggregator
	reportingCurrency string
	log               zerolog.Logger
	now               func() time.Time
}

// NewService creates a new valuation service
func NewService(
	transactions domain.TransactionStore,
	cache domain.PriceCache,
	priceSync PriceSynchronizer,
	cfg Config,
	log zerolog.Logger,
) *Service {
	aggregate := AggregatePositions
	if cfg.CostBasisMode == CostBasisChronological {
		aggregate = AggregatePositionsChronological
	}
	if cfg.ReportingCurrency == "" {
		cfg.ReportingCurrency = prices.DefaultQuoteCurrency
	}

	return &Service{
		transactions:      transactions,
		cache:             cache,
		prices:            priceSync,
		aggregate:         aggregate,
		reportingCurrency: cfg.ReportingCurrency,
		log:               log.With().Str("service", "portfolio").Logger(),
		now:               time.Now,
	}
}

// GetPortfolioSummary values every held position.
//
// Prices are resolved concurrently, one goroutine per symbol. A failing quote
// provider never fails the summary: the symbol falls back to an older cached
// price, then to its latest transaction price, then to zero. Ledger and cache
// failures are returned.
func (s *Service) GetPortfolioSummary(ctx context.Context, forceRefresh bool) (*domain.PortfolioSummary, error) {
	defer utils.OperationTimer("portfolio_summary", s.log)()

	summary := &domain.PortfolioSummary{
		Holdings:             []domain.Holding{},
		TotalValue:           decimal.Zero,
		TotalCost:            decimal.Zero,
		TotalGainLoss:        decimal.Zero,
		TotalGainLossPercent: decimal.Zero,
		Currency:             s.reportingCurrency,
		GeneratedAt:          s.now().UTC(),
	}

	txs, err := s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return summary, nil
	}

	positions := s.aggregate(txs)
	symbols := HeldSymbols(positions)
	latest := latestTransactions(txs)

	outcomes := make([]priceOutcome, len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			outcomes[i] = s.resolvePrice(ctx, symbol, latest[symbol], forceRefresh)
		}(i, symbol)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		if outcome.err != nil {
			return nil, fmt.Errorf("failed to resolve price for %s: %w", outcome.symbol, outcome.err)
		}
		h := buildHolding(positions[outcome.symbol], outcome)
		summary.Holdings = append(summary.Holdings, h)
		summary.TotalValue = summary.TotalValue.Add(h.CurrentValue)
		summary.TotalCost = summary.TotalCost.Add(h.TotalCost)
	}

	sort.SliceStable(summary.Holdings, func(i, j int) bool {
		a, b := summary.Holdings[i], summary.Holdings[j]
		if !a.CurrentValue.Equal(b.CurrentValue) {
			return a.CurrentValue.GreaterThan(b.CurrentValue)
		}
		return a.Symbol < b.Symbol
	})

	summary.TotalGainLoss = summary.TotalValue.Sub(summary.TotalCost)
	summary.TotalGainLossPercent = percentOf(summary.TotalGainLoss, summary.TotalCost)

	s.log.Debug().
		Int("holdings", len(summary.Holdings)).
		Str("total_value", summary.TotalValue.String()).
		Bool("force_refresh", forceRefresh).
		Msg("Portfolio summary computed")

	return summary, nil
}

// GetPositions returns the aggregated positions, including closed ones
func (s *Service) GetPositions(ctx context.Context) (map[string]*domain.Position, error) {
	txs, err := s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return s.aggregate(txs), nil
}

// GetUniqueTickers returns every symbol that appears in the ledger
func (s *Service) GetUniqueTickers(ctx context.Context) ([]string, error) {
	symbols, err := s.transactions.UniqueSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get unique tickers: %w", err)
	}
	return symbols, nil
}

// RefreshHoldings refreshes the price of every held symbol sequentially
func (s *Service) RefreshHoldings(ctx context.Context) (*prices.BulkRefreshResult, error) {
	positions, err := s.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	return s.prices.RefreshAll(ctx, HeldSymbols(positions))
}

func (s *Service) loadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	page, err := s.transactions.List(ctx, domain.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return page.Items, nil
}

// latestTransactions returns the most recent transaction per symbol by date
func latestTransactions(txs []domain.Transaction) map[string]*domain.Transaction {
	latest := make(map[string]*domain.Transaction)
	for i := range txs {
		t := &txs[i]
		cur, ok := latest[t.Symbol]
		if !ok || t.Date.After(cur.Date) || (t.Date.Equal(cur.Date) && t.CreatedAt.After(cur.CreatedAt)) {
			latest[t.Symbol] = t
		}
	}
	return latest
}

func buildHolding(p *domain.Position, outcome priceOutcome) domain.Holding {
	price := decimal.Zero
	h := domain.Holding{
		Symbol:      p.Symbol,
		Quantity:    p.Quantity,
		TotalCost:   p.AccumulatedCost,
		AverageCost: p.AccumulatedCost.Div(p.Quantity),
		PriceSource: outcome.source,
		Country:     exchanges.Unknown,
	}

	if outcome.price != nil {
		price = outcome.price.Price
		updated := outcome.price.LastUpdated
		h.PriceUpdatedAt = &updated
		if outcome.price.Exchange != "" {
			h.Exchange = outcome.price.Exchange
			h.Country = exchanges.CountryForExchange(outcome.price.Exchange)
		}
	}

	h.CurrentPrice = price
	h.CurrentValue = p.Quantity.Mul(price)
	h.GainLoss = h.CurrentValue.Sub(h.TotalCost)
	h.GainLossPercent = percentOf(h.GainLoss, h.TotalCost)
	return h
}

// percentOf returns part/whole*100, or zero when whole is not positive
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
