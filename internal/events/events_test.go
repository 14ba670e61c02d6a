package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishReachesSubscribers(t *testing.T) {
	bus := NewBus()

	var created []Event
	bus.Subscribe(BookingCreated, func(e Event) error {
		created = append(created, e)
		return nil
	})
	bus.Subscribe(BookingCancelled, func(e Event) error {
		t.Fatal("wrong event type delivered")
		return nil
	})

	bus.Publish(NewEvent(BookingCreated, 7, map[string]string{"public_id": "abc"}))

	require.Len(t, created, 1)
	assert.Equal(t, int64(7), created[0].MerchantID)
	assert.JSONEq(t, `{"public_id":"abc"}`, string(created[0].Payload))
	assert.False(t, created[0].CreatedAt.IsZero())
}

func TestBusMultipleHandlers(t *testing.T) {
	bus := NewBus()

	calls := 0
	for i := 0; i < 3; i++ {
		bus.Subscribe(HoursUpdated, func(Event) error {
			calls++
			return nil
		})
	}

	bus.Publish(NewEvent(HoursUpdated, 1, nil))
	assert.Equal(t, 3, calls)
}
