package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Manager emits events on the bus and logs them.
// A nil *Manager is valid and discards events.
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("component", "events").Logger(),
	}
}

// Bus returns the underlying bus for subscribers
func (m *Manager) Bus() *Bus {
	if m == nil {
		return nil
	}
	return m.bus
}

// Emit publishes an event
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	if m == nil {
		return
	}

	event := m.bus.Emit(eventType, module, data)

	payload, err := json.Marshal(event.Data)
	if err != nil {
		m.log.Debug().Str("type", string(eventType)).Str("module", module).Msg("Event emitted")
		return
	}
	m.log.Debug().
		Str("type", string(eventType)).
		Str("module", module).
		RawJSON("data", payload).
		Msg("Event emitted")
}

// EmitError publishes an ErrorOccurred event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	if m == nil || err == nil {
		return
	}

	data := map[string]interface{}{"error": err.Error()}
	for k, v := range context {
		data[k] = v
	}

	m.log.Error().Err(err).Str("module", module).Msg("Error event")
	m.Emit(ErrorOccurred, module, data)
}
