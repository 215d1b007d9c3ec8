package portfolio

import (
	"sort"

	"github.com/aristath/folio/internal/domain"
	"github.com/shopspring/decimal"
)

// Aggregator folds a transaction list into positions keyed by symbol
type Aggregator func(transactions []domain.Transaction) map[string]*domain.Position

// AggregatePositions folds transactions in the order given, which for the
// ledger is most recent first.
//
// A BUY adds quantity and quantity*price to the accumulated cost. A SELL first
// removes its quantity, then removes cost at the average over the quantity held
// before the sale (running quantity plus the sold quantity). The average uses
// the running quantity at the point the sale is folded, so any input order that
// is not chronological per symbol drifts the cost basis. Positions that end at
// or below zero are kept.
func AggregatePositions(transactions []domain.Transaction) map[string]*domain.Position {
	positions := make(map[string]*domain.Position)
	for _, t := range transactions {
		apply(positionFor(positions, t.Symbol), t)
	}
	return positions
}

// AggregatePositionsChronological sorts each symbol's transactions by date
// (oldest first, insertion order breaking ties) before folding, which yields
// the textbook weighted-average cost. Selling more than is held clears the
// remaining cost instead of letting it go negative.
func AggregatePositionsChronological(transactions []domain.Transaction) map[string]*domain.Position {
	ordered := make([]domain.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	positions := make(map[string]*domain.Position)
	for _, t := range ordered {
		p := positionFor(positions, t.Symbol)
		apply(p, t)
		if !p.Quantity.IsPositive() {
			p.AccumulatedCost = decimal.Zero
		}
	}
	return positions
}

func positionFor(positions map[string]*domain.Position, symbol string) *domain.Position {
	p, ok := positions[symbol]
	if !ok {
		p = &domain.Position{Symbol: symbol}
		positions[symbol] = p
	}
	return p
}

func apply(p *domain.Position, t domain.Transaction) {
	switch t.Kind {
	case domain.KindBuy:
		p.Quantity = p.Quantity.Add(t.Quantity)
		p.AccumulatedCost = p.AccumulatedCost.Add(t.Quantity.Mul(t.Price))
	case domain.KindSell:
		p.Quantity = p.Quantity.Sub(t.Quantity)
		held := p.Quantity.Add(t.Quantity)
		avgCostBeforeSale := decimal.Zero
		if !held.IsZero() {
			avgCostBeforeSale = p.AccumulatedCost.Div(held)
		}
		p.AccumulatedCost = p.AccumulatedCost.Sub(t.Quantity.Mul(avgCostBeforeSale))
	}
}

// HeldSymbols returns the symbols with a positive quantity, sorted
func HeldSymbols(positions map[string]*domain.Position) []string {
	symbols := make([]string, 0, len(positions))
	for symbol, p := range positions {
		if p.Quantity.IsPositive() {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}
