package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/folio/internal/events"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	eventBufferSize   = 100
	eventWriteTimeout = 5 * time.Second
	eventPingInterval = 30 * time.Second
)

// EventsStreamHandler pushes bus events to websocket clients as JSON text frames
type EventsStreamHandler struct {
	bus            *events.Bus
	log            zerolog.Logger
	originPatterns []string
	pingInterval   time.Duration
}

// NewEventsStreamHandler creates a new events stream handler. originPatterns
// lists extra hosts allowed to connect; same-origin requests are always accepted.
func NewEventsStreamHandler(bus *events.Bus, originPatterns []string, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus:            bus,
		log:            log.With().Str("component", "events_stream").Logger(),
		originPatterns: originPatterns,
		pingInterval:   eventPingInterval,
	}
}

// ServeHTTP handles GET /api/events/ws. The optional types query parameter
// is a comma-separated list of event types to receive.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	allowedTypes := parseTypesFilter(r.URL.Query().Get("types"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to accept websocket connection")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")

	eventChan, unsubscribe := h.bus.Subscribe(eventBufferSize)
	defer unsubscribe()

	h.log.Info().
		Int("types", len(allowedTypes)).
		Int("subscribers", h.bus.Subscribers()).
		Msg("Client connected to event stream")

	// Clients only listen; CloseRead handles control frames and cancels on disconnect
	ctx := conn.CloseRead(r.Context())

	if err := h.stream(ctx, conn, eventChan, allowedTypes); err != nil {
		h.log.Debug().Err(err).Msg("Event stream closed")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *EventsStreamHandler) stream(ctx context.Context, conn *websocket.Conn, eventChan <-chan events.Event, allowedTypes map[events.EventType]bool) error {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			if allowedTypes != nil && !allowedTypes[event.Type] {
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				return err
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func parseTypesFilter(raw string) map[events.EventType]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	allowed := make(map[events.EventType]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			allowed[events.EventType(strings.ToUpper(t))] = true
		}
	}
	return allowed
}
