// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"receipt-service/internal/model"
)

// eventTypeAll is the wildcard subscription key
const eventTypeAll model.EventType = "*"

// EventBus distributes printer events to subscribers. Publishing never
// blocks; a full bus or a slow subscriber drops events rather than stalling
// a print job.
type EventBus struct {
	subscribers map[model.EventType][]chan model.PrinterEvent
	events      chan model.PrinterEvent
	mutex       sync.RWMutex
	closed      bool
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[model.EventType][]chan model.PrinterEvent),
		events:      make(chan model.PrinterEvent, 1000),
		logger:      logger,
	}
}

// Start runs the distribution loop until Close
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}
}

// Close stops the distribution loop. Idempotent.
func (eb *EventBus) Close() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true
	close(eb.events)
}

// Publish publishes an event. Safe to call after Close: late events from
// teardown paths are dropped, not panicked on.
func (eb *EventBus) Publish(event model.PrinterEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	if eb.closed {
		return
	}

	select {
	case eb.events <- event:
	default:
		if eb.logger != nil {
			eb.logger.Warn("Event bus full, dropping event",
				zap.String("event_type", string(event.EventType)),
			)
		}
	}
}

// Subscribe subscribes to events of a specific type
func (eb *EventBus) Subscribe(eventType model.EventType) <-chan model.PrinterEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.PrinterEvent, 100)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
	return subscriber
}

// SubscribeAll subscribes to every event type
func (eb *EventBus) SubscribeAll() <-chan model.PrinterEvent {
	return eb.Subscribe(eventTypeAll)
}

// distributeEvent distributes an event to subscribers
func (eb *EventBus) distributeEvent(event model.PrinterEvent) {
	eb.mutex.RLock()
	subscribers := make([]chan model.PrinterEvent, 0,
		len(eb.subscribers[event.EventType])+len(eb.subscribers[eventTypeAll]))
	subscribers = append(subscribers, eb.subscribers[event.EventType]...)
	subscribers = append(subscribers, eb.subscribers[eventTypeAll]...)
	eb.mutex.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
