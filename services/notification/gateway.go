package notification

import (
	"context"
	"errors"
	"fmt"

	"smovers/models"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Gateway delivers a single HTML email.
type Gateway interface {
	Send(ctx context.Context, to, subject, htmlBody string) (models.DeliveryStatus, error)
}

// sendClient is the part of the SendGrid client the gateway uses.
type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridGateway sends mail through the SendGrid v3 API.
type SendGridGateway struct {
	client sendClient
	from   *mail.Email
}

// NewSendGridGateway builds a gateway from an API key and sender identity.
func NewSendGridGateway(apiKey, fromAddress, fromName string) (*SendGridGateway, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if fromAddress == "" {
		return nil, errors.New("sender address is required")
	}
	return &SendGridGateway{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}, nil
}

func (g *SendGridGateway) Send(ctx context.Context, to, subject, htmlBody string) (models.DeliveryStatus, error) {
	msg := mail.NewSingleEmail(g.from, subject, mail.NewEmail("", to), "", htmlBody)
	resp, err := g.client.SendWithContext(ctx, msg)
	if err != nil {
		return models.DeliveryStatus{}, fmt.Errorf("sendgrid: send to %s: %w", to, err)
	}
	return models.DeliveryStatus{
		Success:    models.IsSuccessStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}, nil
}

// LogGateway writes emails to the log instead of sending them.
type LogGateway struct {
	Logger *zap.Logger
}

func (g *LogGateway) Send(_ context.Context, to, subject, htmlBody string) (models.DeliveryStatus, error) {
	g.Logger.Info("email (not sent)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("bytes", len(htmlBody)))
	return models.DeliveryStatus{Success: true, StatusCode: 202}, nil
}
