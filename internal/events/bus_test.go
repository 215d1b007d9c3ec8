package events

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()
	a, unsubA := bus.Subscribe(4)
	b, unsubB := bus.Subscribe(4)
	defer unsubA()
	defer unsubB()

	bus.Emit(PriceUpdated, "prices", map[string]interface{}{"symbol": "AAPL"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, PriceUpdated, ev.Type)
			assert.Equal(t, "prices", ev.Module)
			assert.Equal(t, "AAPL", ev.Data["symbol"])
			assert.False(t, ev.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBus_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(1)
	defer unsub()

	bus.Emit(PriceUpdated, "prices", nil)
	bus.Emit(PriceUpdated, "prices", nil)
	bus.Emit(PriceUpdated, "prices", nil)

	assert.Equal(t, 2, bus.Dropped())
	assert.Len(t, ch, 1)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(1)
	require.Equal(t, 1, bus.Subscribers())

	unsub()
	unsub()
	assert.Equal(t, 0, bus.Subscribers())

	_, open := <-ch
	assert.False(t, open)

	// emitting with no subscribers is fine
	bus.Emit(PriceUpdated, "prices", nil)
}

func TestManager_EmitAndEmitError(t *testing.T) {
	bus := NewBus()
	m := NewManager(bus, zerolog.Nop())
	ch, unsub := bus.Subscribe(4)
	defer unsub()

	m.Emit(TransactionRecorded, "ledger", map[string]interface{}{"id": "tx-1"})
	m.EmitError("prices", errors.New("boom"), map[string]interface{}{"symbol": "AAPL"})

	first := <-ch
	assert.Equal(t, TransactionRecorded, first.Type)

	second := <-ch
	assert.Equal(t, ErrorOccurred, second.Type)
	assert.Equal(t, "boom", second.Data["error"])
	assert.Equal(t, "AAPL", second.Data["symbol"])
}

func TestManager_NilIsNoop(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.Emit(PriceUpdated, "prices", nil)
		m.EmitError("prices", errors.New("boom"), nil)
	})
	assert.Nil(t, m.Bus())
}
