package events

import (
	"time"

	"smovers/models"
)

// Routing keys of the booking lifecycle.
const (
	KeyBookingRequested = "booking.requested"
	KeyBookingAccepted  = "booking.accepted"
	KeyBookingRejected  = "booking.rejected"
	KeyBookingExpired   = "booking.expired"
	KeyBookingCancelled = "booking.cancelled"
	KeyBookingRated     = "booking.rated"
)

// BookingEvent is the payload published for every lifecycle transition.
type BookingEvent struct {
	BookingID        string      `json:"bookingId"`
	BookerEmail      string      `json:"bookerEmail"`
	CounterpartEmail string      `json:"counterpartEmail"`
	Kind             models.Role `json:"kind"`
	Date             string      `json:"date"`
	StartTime        string      `json:"startTime"`
	Actor            models.Role `json:"actor,omitempty"`
	Rating           *int        `json:"rating,omitempty"`
	OccurredAt       time.Time   `json:"occurredAt"`
}

// NewBookingEvent describes b as seen at now.
func NewBookingEvent(bookerEmail string, b models.Booking, now time.Time) BookingEvent {
	return BookingEvent{
		BookingID:        b.ID,
		BookerEmail:      bookerEmail,
		CounterpartEmail: b.CounterpartEmail(),
		Kind:             b.Kind(),
		Date:             b.Date.Format("2006-01-02"),
		StartTime:        b.StartTime,
		OccurredAt:       now.UTC(),
	}
}
