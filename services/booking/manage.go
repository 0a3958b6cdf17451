package booking

import (
	"context"
	"errors"

	ledgerRepo "smovers/database/repository/ledger"
	ratingRepo "smovers/database/repository/rating"
	"smovers/models"
	"smovers/services/events"
	"smovers/utils"

	"go.uber.org/zap"
)

// Actor is the authenticated party performing an operation.
type Actor struct {
	Role  models.Role
	Email string
	Name  string
}

// Cancellation acknowledges a cancelled booking.
type Cancellation struct {
	BookingID string `json:"bookingId"`
	Cancelled bool   `json:"cancellation"`
	Notified  bool   `json:"notified"`
}

// isParty reports whether actor is the booker or the counterpart of b.
func isParty(actor Actor, bookerEmail string, b models.Booking) bool {
	if actor.Role == models.RoleBooker {
		return bookerEmail == actor.Email
	}
	return b.Kind() == actor.Role && b.CounterpartEmail() == actor.Email
}

// CancelBooking removes an accepted booking on behalf of either party, as
// long as the cancellation cutoff before the service day has not passed.
func (e *Engine) CancelBooking(ctx context.Context, actor Actor, bookingID string) (*Cancellation, error) {
	entry, err := e.Ledger.FindBooking(ctx, bookingID)
	if errors.Is(err, ledgerRepo.ErrBookingNotFound) {
		return nil, newError(CodeInvalidState, "no such booking exists")
	}
	if err != nil {
		return nil, unexpected("could not load booking", err)
	}
	b := e.Settings.local(entry.Booking)
	if !isParty(actor, entry.BookerEmail, b) {
		return nil, newError(CodeInvalidState, "no such booking exists")
	}
	if b.Status != models.StatusAccepted {
		return nil, newError(CodeInvalidState, "only accepted bookings can be cancelled")
	}
	// The cutoff instant itself still allows cancelling.
	deadline := utils.DateOnly(b.Date).Add(-e.Settings.CancellationCutoff)
	if e.now().After(deadline) {
		return nil, newError(CodeInvalidState, "the cancellation period for this booking has passed")
	}

	removed, err := e.Ledger.RemoveIfStatus(ctx, entry.BookerEmail, bookingID, models.StatusAccepted)
	if errors.Is(err, ledgerRepo.ErrPreconditionFailed) {
		return nil, newError(CodeInvalidState, "no such booking exists")
	}
	if err != nil {
		return nil, unexpected("could not cancel booking", err)
	}
	*removed = e.Settings.local(*removed)

	ev := events.NewBookingEvent(entry.BookerEmail, *removed, e.now())
	ev.Actor = actor.Role
	e.publish(ctx, e.logger(), events.KeyBookingCancelled, ev)

	bookerName := actor.Name
	if actor.Role != models.RoleBooker {
		bookerName = e.bookerName(ctx, entry.BookerEmail)
	}

	var status models.DeliveryStatus
	if actor.Role == models.RoleBooker {
		status = e.Notifier.NotifyCancelled(ctx, removed.CounterpartEmail(), removed.CounterpartName(), actor.Name, bookerName, *removed)
	} else {
		status = e.Notifier.NotifyCancelled(ctx, entry.BookerEmail, bookerName, removed.CounterpartName(), bookerName, *removed)
	}

	e.logger().Info("booking cancelled",
		zap.String("bookingId", bookingID),
		zap.String("actorRole", string(actor.Role)),
		zap.Bool("notified", status.Success))

	return &Cancellation{BookingID: bookingID, Cancelled: true, Notified: status.Success}, nil
}

// RateBooking lets one party rate the other once per booking, after the
// service has started. The flag and the rated account's average are written
// together.
func (e *Engine) RateBooking(ctx context.Context, actor Actor, bookingID string, rating int) (*models.RatingResult, error) {
	if rating < 0 || rating > 5 {
		return nil, newError(CodeValidation, "rating must be between 0 and 5")
	}

	entry, err := e.Ledger.FindBooking(ctx, bookingID)
	if errors.Is(err, ledgerRepo.ErrBookingNotFound) {
		return nil, newError(CodeNotEligible, "booking not found")
	}
	if err != nil {
		return nil, unexpected("could not load booking", err)
	}
	b := e.Settings.local(entry.Booking)
	if !isParty(actor, entry.BookerEmail, b) {
		return nil, newError(CodeForbidden, "only the parties of a booking can rate it")
	}
	if b.Status != models.StatusAccepted || !b.ScheduledAt().Before(e.now()) {
		return nil, ErrNotEligible
	}

	update := models.RatingUpdate{
		BookerEmail: entry.BookerEmail,
		BookingID:   bookingID,
		RaterRole:   actor.Role,
		Rating:      rating,
	}
	if actor.Role == models.RoleBooker {
		if b.Rated {
			return nil, ErrAlreadyRated
		}
		update.RatedRole = b.Kind()
		update.RatedEmail = b.CounterpartEmail()
	} else {
		if b.BookerRated {
			return nil, ErrAlreadyRated
		}
		update.RatedRole = models.RoleBooker
		update.RatedEmail = entry.BookerEmail
	}

	result, err := e.Ratings.RecordRating(ctx, update)
	switch {
	case errors.Is(err, ratingRepo.ErrAlreadyRated):
		return nil, ErrAlreadyRated
	case errors.Is(err, ratingRepo.ErrRatedAccountNotFound):
		return nil, newError(CodeNotFound, "rated account not found")
	case err != nil:
		return nil, unexpected("could not record rating", err)
	}

	ev := events.NewBookingEvent(entry.BookerEmail, b, e.now())
	ev.Actor = actor.Role
	ev.Rating = &rating
	e.publish(ctx, e.logger(), events.KeyBookingRated, ev)

	e.logger().Info("booking rated",
		zap.String("bookingId", bookingID),
		zap.String("raterRole", string(actor.Role)),
		zap.Int("rating", rating),
		zap.Int("newAverage", result.Rating))
	return result, nil
}

// BookerBookings returns every booking in the booker's ledger.
func (e *Engine) BookerBookings(ctx context.Context, bookerID string) (*models.Bookings, error) {
	booker, err := e.lookup(ctx, models.RoleBooker, bookerID, true)
	if err != nil {
		return nil, err
	}
	ledger, err := e.Ledger.GetByBooker(ctx, booker.Email)
	if err != nil {
		return nil, unexpected("could not load bookings", err)
	}
	for i := range ledger.Bookings {
		ledger.Bookings[i] = e.Settings.local(ledger.Bookings[i])
	}
	return ledger, nil
}

// UpcomingBookings returns the provider's accepted bookings that are still ahead.
func (e *Engine) UpcomingBookings(ctx context.Context, kind models.Role, providerID string) ([]models.LedgerEntry, error) {
	provider, err := e.lookup(ctx, kind, providerID, true)
	if err != nil {
		return nil, err
	}
	entries, err := e.Ledger.ListByCounterpart(ctx, kind, provider.Email)
	if err != nil {
		return nil, unexpected("could not load bookings", err)
	}

	now := e.now()
	upcoming := make([]models.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		entry.Booking = e.Settings.local(entry.Booking)
		if entry.Booking.Status == models.StatusAccepted && entry.Booking.ScheduledAt().After(now) {
			upcoming = append(upcoming, entry)
		}
	}
	return upcoming, nil
}
