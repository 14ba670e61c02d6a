package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 9, hour, minute, 0, 0, time.UTC)
}

func atPtr(hour, minute int) *time.Time {
	t := at(hour, minute)
	return &t
}

func TestBookingEffectiveEndTime(t *testing.T) {
	tests := []struct {
		name     string
		booking  Booking
		expected time.Time
	}{
		{
			name:     "nil end falls back to start",
			booking:  Booking{StartTime: at(10, 0)},
			expected: at(10, 0),
		},
		{
			name:     "explicit end wins",
			booking:  Booking{StartTime: at(10, 0), EndTime: atPtr(11, 30)},
			expected: at(11, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.booking.EffectiveEndTime())
		})
	}
}

func TestBookingOverlapsWith(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Booking
		expected bool
	}{
		{
			name:     "disjoint",
			a:        Booking{StartTime: at(9, 0), EndTime: atPtr(10, 0)},
			b:        Booking{StartTime: at(11, 0), EndTime: atPtr(12, 0)},
			expected: false,
		},
		{
			name:     "back to back is not overlap",
			a:        Booking{StartTime: at(9, 0), EndTime: atPtr(10, 0)},
			b:        Booking{StartTime: at(10, 0), EndTime: atPtr(11, 0)},
			expected: false,
		},
		{
			name:     "partial overlap",
			a:        Booking{StartTime: at(9, 0), EndTime: atPtr(10, 30)},
			b:        Booking{StartTime: at(10, 0), EndTime: atPtr(11, 0)},
			expected: true,
		},
		{
			name:     "containment",
			a:        Booking{StartTime: at(9, 0), EndTime: atPtr(12, 0)},
			b:        Booking{StartTime: at(10, 0), EndTime: atPtr(11, 0)},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.OverlapsWith(&tt.b))
			assert.Equal(t, tt.expected, tt.b.OverlapsWith(&tt.a))
		})
	}
}

func TestBookingContainsDate(t *testing.T) {
	booking := Booking{StartTime: at(9, 0), EndTime: atPtr(17, 0)}

	assert.True(t, booking.ContainsDate(time.Date(2026, time.March, 9, 23, 0, 0, 0, time.UTC)))
	assert.False(t, booking.ContainsDate(time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, booking.ContainsDate(time.Date(2026, time.March, 8, 12, 0, 0, 0, time.UTC)))
}

func TestBookingStatusHelpers(t *testing.T) {
	assert.True(t, (&Booking{Status: BookingPending}).IsActive())
	assert.True(t, (&Booking{Status: BookingConfirmed}).IsActive())
	assert.False(t, (&Booking{Status: BookingCancelled}).IsActive())
	assert.False(t, (&Booking{Status: BookingCompleted}).IsActive())

	assert.True(t, (&Booking{SeriesID: "abc"}).IsRecurring())
	assert.False(t, (&Booking{}).IsRecurring())
}
