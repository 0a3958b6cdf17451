package booking

import (
	"context"
	"time"

	"smovers/models"
	"smovers/services/proposal"
)

// Directory resolves accounts by id or email.
type Directory interface {
	GetByID(ctx context.Context, role models.Role, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error)
}

// Tokens mints and redeems proposal tokens.
type Tokens interface {
	Issue(ref models.ProposalRef) (string, *proposal.Claims, error)
	Verify(raw string) (*proposal.Claims, error)
	Consume(ctx context.Context, claims *proposal.Claims) error
	Release(ctx context.Context, claims *proposal.Claims) error
}

// Notifier sends the lifecycle emails. It never fails a caller; the returned
// status says whether the message was accepted for delivery.
type Notifier interface {
	NotifyRequest(ctx context.Context, bookerName string, b models.Booking, token string, window time.Duration) models.DeliveryStatus
	NotifyAccepted(ctx context.Context, bookerEmail, bookerName string, b models.Booking) models.DeliveryStatus
	NotifyRejected(ctx context.Context, bookerEmail, bookerName string, b models.Booking) models.DeliveryStatus
	NotifyAutoCancelled(ctx context.Context, bookerName string, b models.Booking) models.DeliveryStatus
	NotifyNoResponse(ctx context.Context, bookerEmail, bookerName string, b models.Booking) models.DeliveryStatus
	NotifyCancelled(ctx context.Context, to, recipientName, actorName, bookerName string, b models.Booking) models.DeliveryStatus
}

// ExpiryScheduler arranges for an expiry check to run after a delay.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, task models.ExpiryTask, after time.Duration) error
}

// EventPublisher announces lifecycle transitions to other systems.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// ExpiryHandler runs an expiry check. It reports whether the booking expired.
type ExpiryHandler func(ctx context.Context, task models.ExpiryTask) (bool, error)

// Settings are the lifecycle windows.
type Settings struct {
	DriverWindow       time.Duration
	HelperWindow       time.Duration
	CancellationCutoff time.Duration
	// Location is the timezone calendar dates are interpreted in. Nil means time.Local.
	Location *time.Location
}

// Window returns how long a counterpart of kind has to answer.
func (s Settings) Window(kind models.Role) time.Duration {
	if kind == models.RoleHelper {
		return s.HelperWindow
	}
	return s.DriverWindow
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

// local puts a stored booking back on the service's calendar before any
// day arithmetic.
func (s Settings) local(b models.Booking) models.Booking {
	return b.In(s.location())
}
