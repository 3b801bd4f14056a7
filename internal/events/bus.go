// Package events provides an in-process publish/subscribe bus for domain events.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType identifies a class of event on the bus
type EventType string

const (
	// TradeExecuted - a buy or sell committed against a portfolio
	TradeExecuted EventType = "trade_executed"
	// PortfolioChanged - portfolio state mutated (trade, creation)
	PortfolioChanged EventType = "portfolio_changed"
	// PricesRefreshed - the background quote refresh completed
	PricesRefreshed EventType = "prices_refreshed"
	// RiskProfileChanged - a user's risk classification was updated
	RiskProfileChanged EventType = "risk_profile_changed"
)

// Event is a single occurrence published on the bus
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Handler receives published events. Handlers must not block; slow consumers
// should buffer internally (the SSE stream handler does).
type Handler func(event *Event)

// Bus is a minimal synchronous pub/sub bus. Publish iterates subscribers under
// a read lock, so subscribing during publish is safe.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers an event to all subscribers of its type
func (b *Bus) Publish(eventType EventType, data interface{}) {
	event := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := b.handlers[eventType]
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(eventType)).
		Int("subscribers", len(handlers)).
		Msg("Publishing event")

	for _, handler := range handlers {
		handler(event)
	}
}
