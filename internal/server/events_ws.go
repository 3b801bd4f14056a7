package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/wealthdesk/wealthdesk/internal/events"
)

// EventsWebsocketHandler streams bus events to clients over a websocket.
// Same payloads as the SSE stream, for clients behind proxies that buffer SSE.
type EventsWebsocketHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewEventsWebsocketHandler creates a new events websocket handler
func NewEventsWebsocketHandler(eventBus *events.Bus, log zerolog.Logger) *EventsWebsocketHandler {
	return &EventsWebsocketHandler{
		eventBus: eventBus,
		log:      log.With().Str("component", "events_ws").Logger(),
	}
}

type wsMessage struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ServeHTTP handles GET /api/events/ws requests
func (h *EventsWebsocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// CORS is enforced at the router level
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	allowedTypes := parseTypesFilter(r.URL.Query().Get("types"))

	h.log.Info().Msg("Client connected to event websocket")

	eventChan := make(chan *events.Event, 100)
	eventHandler := func(event *events.Event) {
		if allowedTypes != nil && !allowedTypes[event.Type] {
			return
		}
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	for _, eventType := range allStreamedTypes {
		h.eventBus.Subscribe(eventType, eventHandler)
	}

	ctx := r.Context()

	if err := wsjson.Write(ctx, conn, wsMessage{
		Type:      "connected",
		Timestamp: time.Now().Format(time.RFC3339),
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event websocket")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			if err := wsjson.Write(ctx, conn, wsMessage{
				Type:      string(event.Type),
				Timestamp: event.Timestamp.Format(time.RFC3339),
				Data:      event.Data,
			}); err != nil {
				h.log.Debug().Err(err).Msg("Websocket write failed, closing")
				return
			}

		case <-heartbeat.C:
			if err := wsjson.Write(ctx, conn, wsMessage{
				Type:      "heartbeat",
				Timestamp: time.Now().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}
