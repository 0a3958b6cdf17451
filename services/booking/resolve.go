package booking

import (
	"context"
	"errors"

	ledgerRepo "smovers/database/repository/ledger"
	"smovers/models"
	"smovers/services/events"
	"smovers/services/proposal"

	"go.uber.org/zap"
)

// ResolveProposal applies a provider's answer. The token is consumed before
// anything else, so a replayed link fails with ErrAlreadyUsed and changes
// nothing. Losing the race against the expiry check yields ErrAlreadyHandled.
func (e *Engine) ResolveProposal(ctx context.Context, rawToken string, decision models.Decision) (*models.ProposalOutcome, error) {
	if decision != models.DecisionAccept && decision != models.DecisionReject {
		return nil, newError(CodeValidation, "decision must be accept or reject")
	}

	claims, err := e.Tokens.Verify(rawToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	log := e.logger().With(
		zap.String("bookingId", claims.BookingID),
		zap.String("bookerEmail", claims.BookerEmail),
		zap.String("decision", string(decision)))

	if err := e.Tokens.Consume(ctx, claims); err != nil {
		if errors.Is(err, proposal.ErrAlreadyUsed) {
			log.Info("proposal link reused")
			return nil, ErrAlreadyUsed
		}
		return nil, unexpected("could not redeem link", err)
	}

	ledger, err := e.Ledger.GetByBooker(ctx, claims.BookerEmail)
	if err != nil {
		e.release(ctx, log, claims)
		return nil, unexpected("could not load bookings", err)
	}
	current, ok := ledger.Find(claims.BookingID)
	if !ok || current.Status != models.StatusPending {
		log.Info("proposal already handled")
		return nil, ErrAlreadyHandled
	}
	if current.CounterpartEmail() != claims.ProviderEmail || current.Kind() != claims.Kind {
		log.Warn("proposal token does not match booking counterpart")
		return nil, ErrInvalidToken
	}

	var b *models.Booking
	if decision == models.DecisionAccept {
		b, err = e.Ledger.TransitionStatus(ctx, claims.BookerEmail, claims.BookingID, models.StatusPending, models.StatusAccepted)
	} else {
		b, err = e.Ledger.RemoveIfStatus(ctx, claims.BookerEmail, claims.BookingID, models.StatusPending)
	}
	if errors.Is(err, ledgerRepo.ErrPreconditionFailed) {
		log.Info("proposal lost race against expiry")
		return nil, ErrAlreadyHandled
	}
	if err != nil {
		e.release(ctx, log, claims)
		return nil, unexpected("could not update booking", err)
	}
	*b = e.Settings.local(*b)

	key := events.KeyBookingAccepted
	if decision == models.DecisionReject {
		key = events.KeyBookingRejected
	}
	e.publish(ctx, log, key, events.NewBookingEvent(claims.BookerEmail, *b, e.now()))

	name := e.bookerName(ctx, claims.BookerEmail)
	var status models.DeliveryStatus
	if decision == models.DecisionAccept {
		status = e.Notifier.NotifyAccepted(ctx, claims.BookerEmail, name, *b)
	} else {
		status = e.Notifier.NotifyRejected(ctx, claims.BookerEmail, name, *b)
	}
	log.Info("proposal resolved", zap.Bool("notified", status.Success))

	return &models.ProposalOutcome{BookingID: b.ID, Decision: decision, Notified: status.Success}, nil
}

// release gives a consumed token back after an infrastructure failure so the
// provider can retry the same link.
func (e *Engine) release(ctx context.Context, log *zap.Logger, claims *proposal.Claims) {
	if err := e.Tokens.Release(ctx, claims); err != nil {
		log.Error("failed to release proposal token", zap.Error(err))
	}
}

// ExpireProposal withdraws a booking that is still pending when its response
// window closes. If the proposal was already resolved it does nothing.
func (e *Engine) ExpireProposal(ctx context.Context, task models.ExpiryTask) (bool, error) {
	log := e.logger().With(zap.String("bookingId", task.BookingID), zap.String("bookerEmail", task.BookerEmail))

	b, err := e.Ledger.RemoveIfStatus(ctx, task.BookerEmail, task.BookingID, models.StatusPending)
	if errors.Is(err, ledgerRepo.ErrPreconditionFailed) {
		log.Debug("expiry check found booking already resolved")
		return false, nil
	}
	if err != nil {
		return false, unexpected("could not expire booking", err)
	}
	*b = e.Settings.local(*b)

	e.publish(ctx, log, events.KeyBookingExpired, events.NewBookingEvent(task.BookerEmail, *b, e.now()))

	name := e.bookerName(ctx, task.BookerEmail)
	toCounterpart := e.Notifier.NotifyAutoCancelled(ctx, name, *b)
	toBooker := e.Notifier.NotifyNoResponse(ctx, task.BookerEmail, name, *b)
	log.Info("booking expired without response",
		zap.String("counterpart", b.CounterpartEmail()),
		zap.Bool("counterpartNotified", toCounterpart.Success),
		zap.Bool("bookerNotified", toBooker.Success))
	return true, nil
}
