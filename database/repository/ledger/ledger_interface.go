package ledgerRepo

import (
	"context"
	"errors"

	"smovers/models"
)

var (
	// ErrBookingNotFound is returned when no ledger holds the booking.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrPreconditionFailed is returned when a conditional transition finds
	// the booking missing or in a different status.
	ErrPreconditionFailed = errors.New("booking is not in the expected state")
)

// LedgerRepository stores one Bookings document per booker.
// Status transitions and removals are compare-and-swap operations.
type LedgerRepository interface {
	AppendBooking(ctx context.Context, bookerEmail string, booking models.Booking) error
	GetByBooker(ctx context.Context, bookerEmail string) (*models.Bookings, error)
	FindBooking(ctx context.Context, bookingID string) (*models.LedgerEntry, error)
	TransitionStatus(ctx context.Context, bookerEmail, bookingID string, from, to models.BookingStatus) (*models.Booking, error)
	RemoveIfStatus(ctx context.Context, bookerEmail, bookingID string, status models.BookingStatus) (*models.Booking, error)
	ListByCounterpart(ctx context.Context, kind models.Role, email string) ([]models.LedgerEntry, error)
}

// CounterpartField returns the booking field that references a counterpart of kind.
func CounterpartField(kind models.Role) string {
	if kind == models.RoleHelper {
		return "helperEmail"
	}
	return "driverEmail"
}
