package testing

import (
	"context"
	"sort"
	"sync"

	"github.com/aristath/folio/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockQuoteProvider is a testify mock of domain.QuoteProvider
type MockQuoteProvider struct {
	mock.Mock
}

func (m *MockQuoteProvider) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockQuoteProvider) GetProfile(ctx context.Context, symbol string) (*domain.InstrumentProfile, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstrumentProfile), args.Error(1)
}

// MockPriceCache is an in-memory domain.PriceCache
type MockPriceCache struct {
	mu       sync.RWMutex
	prices   map[string]domain.CurrentPrice
	readErr  error
	writeErr error
	upserts  int
}

// NewMockPriceCache creates a cache seeded with prices
func NewMockPriceCache(prices ...domain.CurrentPrice) *MockPriceCache {
	m := &MockPriceCache{prices: make(map[string]domain.CurrentPrice)}
	for _, p := range prices {
		m.prices[p.Symbol] = p
	}
	return m
}

// SetReadError makes every read fail with err
func (m *MockPriceCache) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes every upsert fail with err
func (m *MockPriceCache) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Upserts returns the number of successful upserts
func (m *MockPriceCache) Upserts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.upserts
}

func (m *MockPriceCache) GetCurrentPrice(ctx context.Context, symbol string) (*domain.CurrentPrice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	p, ok := m.prices[symbol]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MockPriceCache) UpsertCurrentPrice(ctx context.Context, p domain.CurrentPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.prices[p.Symbol] = p
	m.upserts++
	return nil
}

func (m *MockPriceCache) ListCurrentPrices(ctx context.Context) ([]domain.CurrentPrice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]domain.CurrentPrice, 0, len(m.prices))
	for _, p := range m.prices {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// MockTransactionStore is an in-memory domain.TransactionStore for read paths.
// List returns transactions in the order they were given, ignoring the filter
// except for Symbol.
type MockTransactionStore struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
	err          error
	lastFilter   domain.TransactionFilter
}

// NewMockTransactionStore creates a store holding transactions
func NewMockTransactionStore(transactions ...domain.Transaction) *MockTransactionStore {
	return &MockTransactionStore{transactions: transactions}
}

// SetError makes every call fail with err
func (m *MockTransactionStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// LastFilter returns the filter passed to the most recent List call
func (m *MockTransactionStore) LastFilter() domain.TransactionFilter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastFilter
}

func (m *MockTransactionStore) List(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	items := []domain.Transaction{}
	for _, t := range m.transactions {
		if filter.Symbol == "" || t.Symbol == filter.Symbol {
			items = append(items, t)
		}
	}
	return &domain.TransactionPage{Items: items, Count: len(items)}, nil
}

func (m *MockTransactionStore) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range m.transactions {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionStore) Insert(ctx context.Context, t *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.transactions = append(m.transactions, *t)
	return nil
}

func (m *MockTransactionStore) Update(ctx context.Context, id string, patch domain.TransactionPatch) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i, t := range m.transactions {
		if t.ID == id {
			m.transactions[i] = patch.Apply(t)
			updated := m.transactions[i]
			return &updated, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, t := range m.transactions {
		if t.ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockTransactionStore) UniqueSymbols(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	seen := map[string]bool{}
	symbols := []string{}
	for _, t := range m.transactions {
		if !seen[t.Symbol] {
			seen[t.Symbol] = true
			symbols = append(symbols, t.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}
