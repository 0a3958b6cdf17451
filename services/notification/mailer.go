package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"smovers/models"
	"smovers/utils"

	"go.uber.org/zap"
)

// Mailer renders the booking emails and hands them to a Gateway. Delivery
// failures are logged and reported in the returned status, never as errors.
type Mailer struct {
	gateway   Gateway
	baseURL   string
	templates map[string]*template.Template
	logger    *zap.Logger
}

// NewMailer creates a Mailer. baseURL is the public root used in proposal links.
func NewMailer(gateway Gateway, baseURL string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Mailer{
		gateway:   gateway,
		baseURL:   strings.TrimRight(baseURL, "/"),
		templates: parseTemplates(),
		logger:    logger,
	}
}

type mailData struct {
	Booking         models.Booking
	Kind            models.Role
	Date            string
	BookerName      string
	CounterpartName string
	RecipientName   string
	ActorName       string
	Window          string
	AcceptURL       string
	RejectURL       string
}

func newMailData(bookerName string, b models.Booking) mailData {
	return mailData{
		Booking:         b,
		Kind:            b.Kind(),
		Date:            b.Date.Format("Monday, 02 January 2006"),
		BookerName:      bookerName,
		CounterpartName: b.CounterpartName(),
	}
}

// ProposalURL builds the link a provider follows to answer a proposal.
func (m *Mailer) ProposalURL(token string, decision models.Decision) string {
	return fmt.Sprintf("%s/api/proposals/%s/%s", m.baseURL, url.PathEscape(token), decision)
}

// NotifyRequest asks the counterpart to accept or reject a new booking.
func (m *Mailer) NotifyRequest(ctx context.Context, bookerName string, b models.Booking, token string, window time.Duration) models.DeliveryStatus {
	data := newMailData(bookerName, b)
	data.Window = window.String()
	data.AcceptURL = m.ProposalURL(token, models.DecisionAccept)
	data.RejectURL = m.ProposalURL(token, models.DecisionReject)
	return m.send(ctx, b.CounterpartEmail(), "New booking request - S_MOVERS", tmplRequest, data)
}

// NotifyAccepted tells the booker the counterpart accepted.
func (m *Mailer) NotifyAccepted(ctx context.Context, bookerEmail, bookerName string, b models.Booking) models.DeliveryStatus {
	return m.send(ctx, bookerEmail, "Booking accepted - S_MOVERS", tmplAccepted, newMailData(bookerName, b))
}

// NotifyRejected tells the booker the counterpart rejected.
func (m *Mailer) NotifyRejected(ctx context.Context, bookerEmail, bookerName string, b models.Booking) models.DeliveryStatus {
	return m.send(ctx, bookerEmail, "Booking rejected - S_MOVERS", tmplRejected, newMailData(bookerName, b))
}

// NotifyAutoCancelled tells the counterpart an unanswered request was withdrawn.
func (m *Mailer) NotifyAutoCancelled(ctx context.Context, bookerName string, b models.Booking) models.DeliveryStatus {
	return m.send(ctx, b.CounterpartEmail(), "Booking request cancelled - S_MOVERS", tmplAutoCancelled, newMailData(bookerName, b))
}

// NotifyNoResponse tells the booker the counterpart never answered.
func (m *Mailer) NotifyNoResponse(ctx context.Context, bookerEmail, bookerName string, b models.Booking) models.DeliveryStatus {
	return m.send(ctx, bookerEmail, "No response to your booking - S_MOVERS", tmplNoResponse, newMailData(bookerName, b))
}

// NotifyCancelled tells the other party that an accepted booking was cancelled.
func (m *Mailer) NotifyCancelled(ctx context.Context, to, recipientName, actorName, bookerName string, b models.Booking) models.DeliveryStatus {
	data := newMailData(bookerName, b)
	data.RecipientName = recipientName
	data.ActorName = actorName
	return m.send(ctx, to, "Booking cancelled - S_MOVERS", tmplCancelled, data)
}

func (m *Mailer) send(ctx context.Context, to, subject, name string, data mailData) models.DeliveryStatus {
	log := m.logger.With(
		zap.String("template", name),
		zap.String("to", to),
		zap.String("bookingId", data.Booking.ID))

	var buf bytes.Buffer
	if err := m.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error("failed to render email", zap.Error(err))
		return models.DeliveryStatus{}
	}

	status, err := m.gateway.Send(ctx, to, subject, buf.String())
	if err != nil {
		log.Warn("email delivery failed", zap.Error(err))
		return models.DeliveryStatus{StatusCode: status.StatusCode}
	}
	if !status.Success {
		log.Warn("email rejected by provider", zap.Int("statusCode", status.StatusCode))
	}
	return status
}
