// File: models/booking.go
package models

import (
	"fmt"
	"time"
)

// BookingStatus is the persisted state of a booking. Rejected and expired
// bookings are removed from the ledger rather than flagged.
type BookingStatus int

const (
	StatusPending  BookingStatus = 0
	StatusAccepted BookingStatus = 1
)

func (s BookingStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Address is a pickup or drop location. Every field is mandatory.
type Address struct {
	Street   string `bson:"street" json:"street" validate:"required"`
	Number   int    `bson:"number" json:"number" validate:"required,gt=0"`
	City     string `bson:"city" json:"city" validate:"required"`
	Province string `bson:"province" json:"province" validate:"required"`
	ZipCode  string `bson:"zipCode" json:"zipCode" validate:"required"`
	Country  string `bson:"country" json:"country" validate:"required"`
}

func (a Address) String() string {
	return fmt.Sprintf("%d %s, %s, %s %s, %s", a.Number, a.Street, a.City, a.Province, a.ZipCode, a.Country)
}

// Booking is one request from a booker to exactly one driver or helper.
// Exactly one of DriverEmail and HelperEmail is set.
type Booking struct {
	ID          string        `bson:"id" json:"id"`
	DriverEmail string        `bson:"driverEmail,omitempty" json:"driverEmail,omitempty"`
	HelperEmail string        `bson:"helperEmail,omitempty" json:"helperEmail,omitempty"`
	DriverName  string        `bson:"driverName,omitempty" json:"driverName,omitempty"`
	HelperName  string        `bson:"helperName,omitempty" json:"helperName,omitempty"`
	PickUp      Address       `bson:"pickUp" json:"pickUp"`
	Drop        Address       `bson:"drop" json:"drop"`
	Date        time.Time     `bson:"date" json:"date"`           // local midnight of the service day
	StartTime   string        `bson:"startTime" json:"startTime"` // HH:MM
	Motive      string        `bson:"motive,omitempty" json:"motive,omitempty"`
	CarType     string        `bson:"carType,omitempty" json:"carType,omitempty"`
	Status      BookingStatus `bson:"status" json:"status"`
	Rated       bool          `bson:"rated,omitempty" json:"rated,omitempty"`             // booker rated the provider
	BookerRated bool          `bson:"bookerRated,omitempty" json:"bookerRated,omitempty"` // provider rated the booker
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Kind returns the role of the counterpart this booking was made with.
func (b Booking) Kind() Role {
	if b.HelperEmail != "" {
		return RoleHelper
	}
	return RoleDriver
}

// CounterpartEmail returns the driver or helper email.
func (b Booking) CounterpartEmail() string {
	if b.HelperEmail != "" {
		return b.HelperEmail
	}
	return b.DriverEmail
}

// CounterpartName returns the display name snapshot taken at request time.
func (b Booking) CounterpartName() string {
	if b.HelperEmail != "" {
		return b.HelperName
	}
	return b.DriverName
}

// ScheduledAt combines the service date with its start time. An unparsable
// start time falls back to the start of the day.
func (b Booking) ScheduledAt() time.Time {
	t, err := time.Parse("15:04", b.StartTime)
	if err != nil {
		return b.Date
	}
	return time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), t.Hour(), t.Minute(), 0, 0, b.Date.Location())
}

// In returns a copy of b with its date expressed in loc. Stores may hand the
// date back in UTC, which moves the calendar day for any other zone.
func (b Booking) In(loc *time.Location) Booking {
	b.Date = b.Date.In(loc)
	return b
}

// Bookings is the ledger of a single booker, in insertion order.
type Bookings struct {
	BookerEmail string    `bson:"bookerEmail" json:"bookerEmail"`
	Bookings    []Booking `bson:"bookings" json:"bookings"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Find returns the booking with the given id.
func (l *Bookings) Find(bookingID string) (*Booking, bool) {
	for i := range l.Bookings {
		if l.Bookings[i].ID == bookingID {
			return &l.Bookings[i], true
		}
	}
	return nil, false
}

// LedgerEntry is a booking together with the booker that owns it.
type LedgerEntry struct {
	BookerEmail string  `json:"bookerEmail"`
	Booking     Booking `json:"booking"`
}

// BookingRequest is the input of a new booking, before the counterpart is resolved.
type BookingRequest struct {
	BookerID         string  `json:"-" validate:"required"`
	CounterpartEmail string  `json:"counterpartEmail" validate:"required,email"`
	Kind             Role    `json:"-" validate:"required,oneof=driver helper"`
	PickUp           Address `json:"pickUp"`
	Drop             Address `json:"drop"`
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime        string  `json:"startTime" validate:"required,datetime=15:04"`
	Motive           string  `json:"motive" validate:"max=500"`
	CarType          string  `json:"carType"`
}

// BookingReceipt acknowledges that a request has been sent to the counterpart.
type BookingReceipt struct {
	BookingID        string        `json:"bookingId"`
	Status           BookingStatus `json:"status"`
	CounterpartEmail string        `json:"counterpartEmail"`
	ExpiresAt        time.Time     `json:"expiresAt"`
	Notified         bool          `json:"notified"`
}
