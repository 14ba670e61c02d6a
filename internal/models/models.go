// Package models holds the persisted domain records of the booking service.
package models

import "time"

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// Merchant is a tenant business managing services, customers and bookings.
type Merchant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"` // public booking-page handle
	Timezone  string    `json:"timezone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service is a bookable offering of a merchant.
type Service struct {
	ID              int64     `json:"id"`
	MerchantID      int64     `json:"merchant_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Customer belongs to a merchant's customer list.
type Customer struct {
	ID         int64     `json:"id"`
	MerchantID int64     `json:"merchant_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BusinessHoursRow is one weekday's open window in a merchant's weekly
// schedule. DayOfWeek is 0=Sunday .. 6=Saturday. A missing row means closed.
type BusinessHoursRow struct {
	ID         int64     `json:"id"`
	MerchantID int64     `json:"merchant_id"`
	DayOfWeek  int       `json:"day_of_week"`
	StartTime  string    `json:"start_time"` // "HH:MM:SS"
	EndTime    string    `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BlockedTime is a merchant-defined interval during which no bookings may be
// made.
type BlockedTime struct {
	ID         int64     `json:"id"`
	MerchantID int64     `json:"merchant_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Booking is a scheduled appointment between a merchant and a customer.
// Bookings created from one recurring rule share a SeriesID.
type Booking struct {
	ID         int64      `json:"id"`
	PublicID   string     `json:"public_id"` // uuid, exposed to clients
	MerchantID int64      `json:"merchant_id"`
	ServiceID  int64      `json:"service_id"`
	CustomerID int64      `json:"customer_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"` // nil means the service's default duration
	Status     string     `json:"status"`
	SeriesID   string     `json:"series_id,omitempty"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Version    int64      `json:"version"`
}

// EffectiveEndTime returns the booking's end, falling back to the start when
// no explicit end was stored.
func (b *Booking) EffectiveEndTime() time.Time {
	if b.EndTime != nil {
		return *b.EndTime
	}
	return b.StartTime
}

// IsRecurring reports whether the booking belongs to a recurring series.
func (b *Booking) IsRecurring() bool {
	return b.SeriesID != ""
}

// IsActive reports whether the booking still occupies its time.
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// OverlapsWith checks whether two bookings occupy intersecting time,
// using half-open [start, end) semantics.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return b.StartTime.Before(other.EffectiveEndTime()) &&
		other.StartTime.Before(b.EffectiveEndTime())
}

// ContainsDate checks whether the booking falls on the given calendar date,
// ignoring the time component.
func (b *Booking) ContainsDate(date time.Time) bool {
	dateOnly := truncateToDate(date)
	startOnly := truncateToDate(b.StartTime)
	endOnly := truncateToDate(b.EffectiveEndTime())
	return !dateOnly.Before(startOnly) && !dateOnly.After(endOnly)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
