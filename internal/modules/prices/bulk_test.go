package prices

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	testingpkg "github.com/aristath/folio/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	calls []time.Duration
	err   error
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return r.err
}

func withProfile(provider *testingpkg.MockQuoteProvider, symbols ...string) {
	for _, s := range symbols {
		provider.On("GetProfile", mock.Anything, s).Return(&domain.InstrumentProfile{Ticker: s}, nil)
	}
}

func TestRefreshAll_SequentialWithPause(t *testing.T) {
	provider := new(testingpkg.MockQuoteProvider)
	provider.On("GetQuote", mock.Anything, "AAPL").Return(quote("1"), nil)
	provider.On("GetQuote", mock.Anything, "MSFT").Return(quote("2"), nil)
	provider.On("GetQuote", mock.Anything, "DEAD").Return(quote("0"), nil)
	withProfile(provider, "AAPL", "MSFT")

	s := newTestService(testingpkg.NewMockPriceCache(), provider)
	rec := &sleepRecorder{}
	s.sleep = rec.sleep

	result, err := s.RefreshAll(context.Background(), []string{"AAPL", "DEAD", "MSFT"})
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, result.Refreshed)
	assert.Contains(t, result.Failed["DEAD"], "no data available")
	assert.Empty(t, result.Skipped)
	assert.False(t, result.RateLimited)
	assert.Equal(t, []time.Duration{DefaultBulkDelay, DefaultBulkDelay}, rec.calls)
}

func TestRefreshAll_StopsOnRateLimit(t *testing.T) {
	provider := new(testingpkg.MockQuoteProvider)
	provider.On("GetQuote", mock.Anything, "AAPL").Return(quote("1"), nil)
	provider.On("GetQuote", mock.Anything, "MSFT").Return(nil, fmt.Errorf("429: %w", domain.ErrRateLimited))
	withProfile(provider, "AAPL")

	s := newTestService(testingpkg.NewMockPriceCache(), provider)
	s.sleep = (&sleepRecorder{}).sleep

	result, err := s.RefreshAll(context.Background(), []string{"AAPL", "MSFT", "TSLA", "NVDA"})
	require.NoError(t, err)

	assert.True(t, result.RateLimited)
	assert.Equal(t, []string{"AAPL"}, result.Refreshed)
	assert.Contains(t, result.Failed, "MSFT")
	assert.Equal(t, []string{"TSLA", "NVDA"}, result.Skipped)
	provider.AssertNotCalled(t, "GetQuote", mock.Anything, "TSLA")
	provider.AssertNotCalled(t, "GetQuote", mock.Anything, "NVDA")
}

func TestRefreshAll_CancelledDuringPause(t *testing.T) {
	provider := new(testingpkg.MockQuoteProvider)
	provider.On("GetQuote", mock.Anything, "AAPL").Return(quote("1"), nil)
	withProfile(provider, "AAPL")

	s := newTestService(testingpkg.NewMockPriceCache(), provider)
	s.sleep = (&sleepRecorder{err: context.Canceled}).sleep

	result, err := s.RefreshAll(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Equal(t, []string{"AAPL"}, result.Refreshed)
	assert.Equal(t, []string{"MSFT"}, result.Skipped)
}

func TestRefreshAll_StoreFailureAborts(t *testing.T) {
	cache := testingpkg.NewMockPriceCache()
	cache.SetWriteError(domain.NewStoreError("upsert", errors.New("locked")))
	provider := new(testingpkg.MockQuoteProvider)
	provider.On("GetQuote", mock.Anything, "AAPL").Return(quote("1"), nil)
	withProfile(provider, "AAPL")

	s := newTestService(cache, provider)
	s.sleep = (&sleepRecorder{}).sleep

	_, err := s.RefreshAll(context.Background(), []string{"AAPL", "MSFT"})
	require.Error(t, err)
	assert.True(t, domain.IsStoreError(err))
	provider.AssertNotCalled(t, "GetQuote", mock.Anything, "MSFT")
}

func TestRefreshAll_Empty(t *testing.T) {
	s := newTestService(testingpkg.NewMockPriceCache(), new(testingpkg.MockQuoteProvider))
	result, err := s.RefreshAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Refreshed)
	assert.Empty(t, result.Failed)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepContext(ctx, 0), context.Canceled)
}
