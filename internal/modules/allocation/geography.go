// Package allocation rolls portfolio holdings up by country.
package allocation

import (
	"context"
	"fmt"
	"sort"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Valuer produces portfolio summaries
type Valuer interface {
	GetPortfolioSummary(ctx context.Context, forceRefresh bool) (*domain.PortfolioSummary, error)
}

// Service computes allocation views over the valued portfolio
type Service struct {
	valuer Valuer
	log    zerolog.Logger
}

// NewService creates a new allocation service
func NewService(valuer Valuer, log zerolog.Logger) *Service {
	return &Service{
		valuer: valuer,
		log:    log.With().Str("service", "allocation").Logger(),
	}
}

// GetGeographicalAllocation values the portfolio and groups it by country
func (s *Service) GetGeographicalAllocation(ctx context.Context, forceRefresh bool) ([]domain.GeographicalAllocation, error) {
	summary, err := s.valuer.GetPortfolioSummary(ctx, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio summary: %w", err)
	}

	allocations := GroupByCountry(summary)
	s.log.Debug().
		Int("countries", len(allocations)).
		Int("holdings", len(summary.Holdings)).
		Msg("Computed geographical allocation")
	return allocations, nil
}

// GetConcentration computes concentration metrics of the geographic allocation
func (s *Service) GetConcentration(ctx context.Context, forceRefresh bool) (*ConcentrationMetrics, error) {
	allocations, err := s.GetGeographicalAllocation(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	metrics := Concentration(allocations)
	return &metrics, nil
}

// GroupByCountry sums holding values per country, sorted by value descending.
// Holdings carry their resolved country already: "Unknown" when no exchange
// is known, "Other" when the exchange is not mapped.
func GroupByCountry(summary *domain.PortfolioSummary) []domain.GeographicalAllocation {
	allocations := []domain.GeographicalAllocation{}
	if summary == nil || len(summary.Holdings) == 0 {
		return allocations
	}

	values := make(map[string]decimal.Decimal)
	for _, h := range summary.Holdings {
		values[h.Country] = values[h.Country].Add(h.CurrentValue)
	}

	hundred := decimal.NewFromInt(100)
	for country, value := range values {
		pct := decimal.Zero
		if summary.TotalValue.IsPositive() {
			pct = value.Div(summary.TotalValue).Mul(hundred)
		}
		allocations = append(allocations, domain.GeographicalAllocation{
			Country:    country,
			Value:      value,
			Percentage: pct,
		})
	}

	sort.Slice(allocations, func(i, j int) bool {
		if !allocations[i].Value.Equal(allocations[j].Value) {
			return allocations[i].Value.GreaterThan(allocations[j].Value)
		}
		return allocations[i].Country < allocations[j].Country
	})
	return allocations
}
