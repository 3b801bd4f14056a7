package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var received []*Event
	bus.Subscribe(TradeExecuted, func(e *Event) {
		received = append(received, e)
	})

	bus.Publish(TradeExecuted, &TradeExecutedData{Symbol: "AAPL", Side: "BUY"})
	bus.Publish(PortfolioChanged, &PortfolioChangedData{PortfolioID: 1})

	require.Len(t, received, 1, "handler should only see its own event type")
	assert.Equal(t, TradeExecuted, received[0].Type)
	assert.NotEmpty(t, received[0].ID)
	assert.False(t, received[0].Timestamp.IsZero())

	data, ok := received[0].Data.(*TradeExecutedData)
	require.True(t, ok)
	assert.Equal(t, "AAPL", data.Symbol)
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	count := 0
	bus.Subscribe(PricesRefreshed, func(*Event) { count++ })
	bus.Subscribe(PricesRefreshed, func(*Event) { count++ })

	bus.Publish(PricesRefreshed, &PricesRefreshedData{Symbols: 3})

	assert.Equal(t, 2, count)
}
