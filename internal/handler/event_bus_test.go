package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"receipt-service/internal/model"
)

func TestEventBusDistributesToSubscribers(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()
	defer bus.Close()

	all := bus.SubscribeAll()
	failures := bus.Subscribe(model.EventJobFailed)

	bus.Publish(model.NewPrinterEvent(model.EventJobStarted, nil, nil))
	bus.Publish(model.NewPrinterEvent(model.EventJobFailed, nil, nil))

	select {
	case event := <-all:
		assert.Equal(t, model.EventJobStarted, event.EventType)
	case <-time.After(time.Second):
		t.Fatal("wildcard subscriber never received the first event")
	}

	select {
	case event := <-failures:
		assert.Equal(t, model.EventJobFailed, event.EventType)
	case <-time.After(time.Second):
		t.Fatal("typed subscriber never received the failure event")
	}
}

func TestEventBusPublishAfterClose(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()

	bus.Close()

	// A link teardown can race a disconnect notification into the bus
	// after shutdown closed it; the event is dropped, the process lives
	require.NotPanics(t, func() {
		bus.Publish(model.NewPrinterEvent(model.EventPrinterDisconnected, nil, nil))
	})
}

func TestEventBusCloseIsIdempotent(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()

	require.NotPanics(t, func() {
		bus.Close()
		bus.Close()
	})
}
