// Package events provides in-process pub/sub for booking domain events.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Domain event types.
const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
	HoursUpdated     = "hours.updated"
)

// Event represents a lightweight domain event.
type Event struct {
	Type       string
	MerchantID int64
	Payload    []byte
	CreatedAt  time.Time
}

// NewEvent builds an event with a JSON-encoded payload. Marshal failures
// produce an event with a nil payload; publishing still proceeds.
func NewEvent(eventType string, merchantID int64, payload any) Event {
	data, _ := json.Marshal(payload)
	return Event{
		Type:       eventType,
		MerchantID: merchantID,
		Payload:    data,
		CreatedAt:  time.Now(),
	}
}

// Handler reacts to an event.
type Handler func(event Event) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}
