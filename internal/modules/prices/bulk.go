package prices

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/events"
)

// BulkRefreshResult summarizes a RefreshAll run
type BulkRefreshResult struct {
	Refreshed   []string          `json:"refreshed"`
	Failed      map[string]string `json:"failed"`
	Skipped     []string          `json:"skipped"`
	RateLimited bool              `json:"rate_limited"`
	Cancelled   bool              `json:"cancelled"`
	Duration    time.Duration     `json:"duration_ns"`
}

// RefreshAll refreshes symbols one at a time with a fixed pause between
// refreshes. A rate-limit response stops the run and the remaining symbols
// are reported as skipped. Cache failures abort the run with an error.
func (s *Service) RefreshAll(ctx context.Context, symbols []string) (*BulkRefreshResult, error) {
	start := s.now()
	result := &BulkRefreshResult{
		Refreshed: []string{},
		Failed:    map[string]string{},
		Skipped:   []string{},
	}

	for i, symbol := range symbols {
		if i > 0 {
			s.log.Debug().Dur("delay", s.bulkDelay).Msg("Rate limit delay")
			if err := s.sleep(ctx, s.bulkDelay); err != nil {
				result.Cancelled = true
				result.Skipped = append(result.Skipped, symbols[i:]...)
				break
			}
		}

		if _, err := s.RefreshPrice(ctx, symbol); err != nil {
			if domain.IsStoreError(err) {
				return nil, err
			}
			result.Failed[symbol] = err.Error()
			if errors.Is(err, domain.ErrRateLimited) {
				s.log.Warn().Str("symbol", symbol).Msg("Rate limited, stopping bulk refresh")
				result.RateLimited = true
				result.Skipped = append(result.Skipped, symbols[i+1:]...)
				break
			}
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Bulk refresh failed for symbol")
			continue
		}
		result.Refreshed = append(result.Refreshed, symbol)
	}

	result.Duration = s.now().Sub(start)
	s.log.Info().
		Int("refreshed", len(result.Refreshed)).
		Int("failed", len(result.Failed)).
		Int("skipped", len(result.Skipped)).
		Bool("rate_limited", result.RateLimited).
		Msg("Bulk price refresh completed")
	s.events.Emit(events.BulkRefreshCompleted, moduleName, map[string]interface{}{
		"refreshed":    len(result.Refreshed),
		"failed":       len(result.Failed),
		"skipped":      len(result.Skipped),
		"rate_limited": result.RateLimited,
	})

	return result, nil
}
