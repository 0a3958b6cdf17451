package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	accountRepo "smovers/database/repository/account"
	ledgerRepo "smovers/database/repository/ledger"
	ratingRepo "smovers/database/repository/rating"
	"smovers/models"
	"smovers/services/events"
	"smovers/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

// Engine drives a booking from request to exactly one of accepted, rejected
// or expired. Every terminal transition is a conditional write on the ledger,
// so concurrent resolutions and expiry checks cannot both take effect.
type Engine struct {
	Directory Directory
	Ledger    ledgerRepo.LedgerRepository
	Tokens    Tokens
	Notifier  Notifier
	Scheduler ExpiryScheduler
	Ratings   ratingRepo.RatingRepository
	Events    EventPublisher // optional
	Settings  Settings
	Logger    *zap.Logger
	Now       func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return utils.GetLogger()
}

// RequestBooking records a pending booking, sends the proposal to the
// counterpart and arms the expiry check. The answer arrives later through
// ResolveProposal or ExpireProposal.
func (e *Engine) RequestBooking(ctx context.Context, req models.BookingRequest) (*models.BookingReceipt, error) {
	log := e.logger()

	req.CounterpartEmail = strings.ToLower(strings.TrimSpace(req.CounterpartEmail))
	if err := validate.Struct(req); err != nil {
		return nil, &Error{Code: CodeValidation, Message: validationMessage(err), Err: err}
	}

	now := e.now()
	date, err := utils.ParseLocalDate(req.Date, e.Settings.location())
	if err != nil {
		return nil, &Error{Code: CodeValidation, Message: "date must be YYYY-MM-DD", Err: err}
	}
	if utils.IsPastDate(date, now) {
		return nil, newError(CodeValidation, "date must not be in the past")
	}

	booker, err := e.lookup(ctx, models.RoleBooker, req.BookerID, true)
	if err != nil {
		return nil, err
	}
	counterpart, err := e.lookup(ctx, req.Kind, req.CounterpartEmail, false)
	if err != nil {
		return nil, err
	}

	b := models.Booking{
		ID:        uuid.New().String(),
		PickUp:    req.PickUp,
		Drop:      req.Drop,
		Date:      date,
		StartTime: req.StartTime,
		Motive:    req.Motive,
		CarType:   req.CarType,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Kind == models.RoleHelper {
		b.HelperEmail = counterpart.Email
		b.HelperName = counterpart.Name
	} else {
		b.DriverEmail = counterpart.Email
		b.DriverName = counterpart.Name
		if b.CarType == "" {
			b.CarType = counterpart.CarType
		}
	}

	if err := e.Ledger.AppendBooking(ctx, booker.Email, b); err != nil {
		return nil, unexpected("could not save booking", err)
	}

	log = log.With(zap.String("bookingId", b.ID), zap.String("bookerEmail", booker.Email))

	token, _, err := e.Tokens.Issue(models.ProposalRef{
		BookerEmail:   booker.Email,
		BookingID:     b.ID,
		ProviderEmail: counterpart.Email,
		Kind:          req.Kind,
	})
	if err != nil {
		e.withdraw(ctx, log, booker.Email, b.ID)
		return nil, unexpected("could not create proposal", err)
	}

	window := e.Settings.Window(req.Kind)
	task := models.ExpiryTask{BookerEmail: booker.Email, BookingID: b.ID, Kind: req.Kind}
	if err := e.Scheduler.ScheduleExpiry(ctx, task, window); err != nil {
		e.withdraw(ctx, log, booker.Email, b.ID)
		return nil, unexpected("could not schedule proposal expiry", err)
	}

	e.publish(ctx, log, events.KeyBookingRequested, events.NewBookingEvent(booker.Email, b, now))

	status := e.Notifier.NotifyRequest(ctx, booker.Name, b, token, window)
	log.Info("booking requested",
		zap.String("counterpart", counterpart.Email),
		zap.Duration("window", window),
		zap.Bool("notified", status.Success))

	return &models.BookingReceipt{
		BookingID:        b.ID,
		Status:           b.Status,
		CounterpartEmail: counterpart.Email,
		ExpiresAt:        now.Add(window),
		Notified:         status.Success,
	}, nil
}

// publish announces a transition. Broker failures never fail the operation.
func (e *Engine) publish(ctx context.Context, log *zap.Logger, key string, ev events.BookingEvent) {
	if e.Events == nil {
		return
	}
	if err := e.Events.PublishJSON(ctx, key, ev); err != nil {
		log.Warn("failed to publish booking event", zap.String("key", key), zap.Error(err))
	}
}

// withdraw removes a pending booking whose proposal could not be sent out.
func (e *Engine) withdraw(ctx context.Context, log *zap.Logger, bookerEmail, bookingID string) {
	if _, err := e.Ledger.RemoveIfStatus(ctx, bookerEmail, bookingID, models.StatusPending); err != nil {
		log.Error("failed to withdraw pending booking", zap.Error(err))
	}
}

// lookup resolves an account by id or email, mapping absence to ErrNotFound.
func (e *Engine) lookup(ctx context.Context, role models.Role, key string, byID bool) (*models.Account, error) {
	var (
		acct *models.Account
		err  error
	)
	if byID {
		acct, err = e.Directory.GetByID(ctx, role, key)
	} else {
		acct, err = e.Directory.GetByEmail(ctx, role, key)
	}
	if errors.Is(err, accountRepo.ErrAccountNotFound) || (err == nil && acct == nil) {
		return nil, newError(CodeNotFound, string(role)+" not found")
	}
	if err != nil {
		return nil, unexpected("could not load "+string(role), err)
	}
	return acct, nil
}

// bookerName returns the booker's display name, falling back to the email.
func (e *Engine) bookerName(ctx context.Context, bookerEmail string) string {
	acct, err := e.Directory.GetByEmail(ctx, models.RoleBooker, bookerEmail)
	if err != nil || acct == nil {
		return bookerEmail
	}
	return acct.Name
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid input"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}
