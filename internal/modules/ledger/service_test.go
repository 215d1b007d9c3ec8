package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/events"
	testingpkg "github.com/aristath/folio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store domain.TransactionStore) (*Service, <-chan events.Event) {
	bus := events.NewBus()
	ch, _ := bus.Subscribe(16)
	s := NewService(store, events.NewManager(bus, zerolog.Nop()), zerolog.Nop())
	s.newID = func() string { return "fixed-id" }
	return s, ch
}

func validRequest() RecordRequest {
	return RecordRequest{
		Symbol:   " aapl ",
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.RequireFromString("150.5"),
		Date:     testingpkg.Day(2024, 1, 15),
		Kind:     "buy",
	}
}

func TestService_Record(t *testing.T) {
	store := testingpkg.NewMockTransactionStore()
	s, ch := newTestService(store)

	tx, err := s.Record(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", tx.ID)
	assert.Equal(t, "AAPL", tx.Symbol)
	assert.Equal(t, domain.KindBuy, tx.Kind)

	stored, err := store.Get(context.Background(), "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", stored.Symbol)

	event := <-ch
	assert.Equal(t, events.TransactionRecorded, event.Type)
	assert.Equal(t, "AAPL", event.Data["symbol"])
}

func TestService_RecordAssignsUUID(t *testing.T) {
	s := NewService(testingpkg.NewMockTransactionStore(), nil, zerolog.Nop())

	first, err := s.Record(context.Background(), validRequest())
	require.NoError(t, err)
	second, err := s.Record(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Len(t, first.ID, 36)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestService_RecordValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*RecordRequest)
	}{
		{"empty symbol", func(r *RecordRequest) { r.Symbol = "  " }},
		{"malformed symbol", func(r *RecordRequest) { r.Symbol = "AA PL" }},
		{"zero quantity", func(r *RecordRequest) { r.Quantity = decimal.Zero }},
		{"negative quantity", func(r *RecordRequest) { r.Quantity = decimal.NewFromInt(-1) }},
		{"negative price", func(r *RecordRequest) { r.Price = decimal.NewFromInt(-1) }},
		{"unknown kind", func(r *RecordRequest) { r.Kind = "HOLD" }},
		{"missing date", func(r *RecordRequest) { r.Date = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testingpkg.NewMockTransactionStore()
			s := NewService(store, nil, zerolog.Nop())

			req := validRequest()
			tt.modify(&req)

			_, err := s.Record(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)

			page, _ := store.List(context.Background(), domain.TransactionFilter{})
			assert.Empty(t, page.Items)
		})
	}
}

func TestService_RecordZeroPriceAllowed(t *testing.T) {
	s := NewService(testingpkg.NewMockTransactionStore(), nil, zerolog.Nop())
	req := validRequest()
	req.Price = decimal.Zero

	_, err := s.Record(context.Background(), req)
	assert.NoError(t, err)
}

func TestService_RecordStoreError(t *testing.T) {
	store := testingpkg.NewMockTransactionStore()
	store.SetError(domain.NewStoreError("insert", errors.New("disk full")))
	s := NewService(store, nil, zerolog.Nop())

	_, err := s.Record(context.Background(), validRequest())
	assert.True(t, domain.IsStoreError(err))
}

func TestService_Update(t *testing.T) {
	existing := testingpkg.Buy("AAPL", "10", "100", testingpkg.Day(2024, 1, 1))
	existing.ID = "tx-1"
	store := testingpkg.NewMockTransactionStore(existing)
	s, ch := newTestService(store)

	symbol := "msft"
	kind := domain.TransactionKind("sell")
	updated, err := s.Update(context.Background(), "tx-1", domain.TransactionPatch{Symbol: &symbol, Kind: &kind})
	require.NoError(t, err)
	assert.Equal(t, "MSFT", updated.Symbol)
	assert.Equal(t, domain.KindSell, updated.Kind)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(100)))

	event := <-ch
	assert.Equal(t, events.TransactionUpdated, event.Type)
}

func TestService_UpdateRejectsInvalidResult(t *testing.T) {
	existing := testingpkg.Buy("AAPL", "10", "100", testingpkg.Day(2024, 1, 1))
	existing.ID = "tx-1"
	store := testingpkg.NewMockTransactionStore(existing)
	s := NewService(store, nil, zerolog.Nop())

	zero := decimal.Zero
	_, err := s.Update(context.Background(), "tx-1", domain.TransactionPatch{Quantity: &zero})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := store.Get(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.True(t, stored.Quantity.Equal(decimal.NewFromInt(10)))
}

func TestService_UpdateNotFound(t *testing.T) {
	s := NewService(testingpkg.NewMockTransactionStore(), nil, zerolog.Nop())

	_, err := s.Update(context.Background(), "missing", domain.TransactionPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	existing := testingpkg.Buy("AAPL", "10", "100", testingpkg.Day(2024, 1, 1))
	existing.ID = "tx-1"
	s, ch := newTestService(testingpkg.NewMockTransactionStore(existing))

	require.NoError(t, s.Delete(context.Background(), "tx-1"))
	event := <-ch
	assert.Equal(t, events.TransactionDeleted, event.Type)
	assert.Equal(t, "tx-1", event.Data["id"])

	assert.ErrorIs(t, s.Delete(context.Background(), "tx-1"), domain.ErrNotFound)
}

func TestService_ListNormalizesFilter(t *testing.T) {
	store := testingpkg.NewMockTransactionStore()
	s := NewService(store, nil, zerolog.Nop())

	_, err := s.List(context.Background(), domain.TransactionFilter{Symbol: "bmw.de"})
	require.NoError(t, err)
	assert.Equal(t, "BMW.DE", store.LastFilter().Symbol)

	_, err = s.List(context.Background(), domain.TransactionFilter{Kind: "HOLD"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.List(context.Background(), domain.TransactionFilter{Limit: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
