package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smovers/models"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	To, Subject, Body string
}

type recordingGateway struct {
	mu     sync.Mutex
	sent   []sentMail
	status models.DeliveryStatus
	err    error
}

func (g *recordingGateway) Send(_ context.Context, to, subject, htmlBody string) (models.DeliveryStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	if g.err != nil {
		return models.DeliveryStatus{}, g.err
	}
	return g.status, nil
}

func sampleBooking() models.Booking {
	addr := models.Address{Street: "Main", Number: 12, City: "Rosario", Province: "SF", ZipCode: "2000", Country: "AR"}
	return models.Booking{
		ID:          "booking-1",
		DriverEmail: "driver@x.io",
		DriverName:  "Dee",
		PickUp:      addr,
		Drop:        addr,
		Date:        time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
		Motive:      "moving <boxes>",
	}
}

func TestNotifyRequestCarriesBothLinks(t *testing.T) {
	gw := &recordingGateway{status: models.DeliveryStatus{Success: true, StatusCode: 202}}
	m := NewMailer(gw, "https://smovers.app/", zap.NewNop())

	status := m.NotifyRequest(context.Background(), "Bea", sampleBooking(), "tok.en-1", 15*time.Minute)
	assert.True(t, status.Success)

	require.Len(t, gw.sent, 1)
	msg := gw.sent[0]
	assert.Equal(t, "driver@x.io", msg.To)
	assert.Contains(t, msg.Body, "https://smovers.app/api/proposals/tok.en-1/accept")
	assert.Contains(t, msg.Body, "https://smovers.app/api/proposals/tok.en-1/reject")
	assert.Contains(t, msg.Body, "15m0s")
	assert.Contains(t, msg.Body, "Bea")
	// User input is escaped.
	assert.Contains(t, msg.Body, "moving &lt;boxes&gt;")
}

func TestProposalURLEscapesToken(t *testing.T) {
	m := NewMailer(&recordingGateway{}, "http://localhost:3001", zap.NewNop())
	assert.Equal(t, "http://localhost:3001/api/proposals/a%2Fb/reject", m.ProposalURL("a/b", models.DecisionReject))
}

func TestNotifyRecipients(t *testing.T) {
	gw := &recordingGateway{status: models.DeliveryStatus{Success: true, StatusCode: 202}}
	m := NewMailer(gw, "http://localhost", zap.NewNop())
	ctx := context.Background()
	b := sampleBooking()

	m.NotifyAccepted(ctx, "booker@x.io", "Bea", b)
	m.NotifyRejected(ctx, "booker@x.io", "Bea", b)
	m.NotifyAutoCancelled(ctx, "Bea", b)
	m.NotifyNoResponse(ctx, "booker@x.io", "Bea", b)
	m.NotifyCancelled(ctx, "driver@x.io", "Dee", "Bea", "Bea", b)

	require.Len(t, gw.sent, 5)
	assert.Equal(t, "booker@x.io", gw.sent[0].To)
	assert.Contains(t, gw.sent[0].Subject, "accepted")
	assert.Equal(t, "booker@x.io", gw.sent[1].To)
	assert.Contains(t, gw.sent[1].Subject, "rejected")
	assert.Equal(t, "driver@x.io", gw.sent[2].To)
	assert.Equal(t, "booker@x.io", gw.sent[3].To)
	assert.Equal(t, "driver@x.io", gw.sent[4].To)
	assert.Contains(t, gw.sent[4].Body, "Bea cancelled")
}

func TestDeliveryFailureIsSoft(t *testing.T) {
	m := NewMailer(&recordingGateway{err: errors.New("connection reset")}, "http://localhost", zap.NewNop())
	status := m.NotifyAccepted(context.Background(), "booker@x.io", "Bea", sampleBooking())
	assert.False(t, status.Success)

	m = NewMailer(&recordingGateway{status: models.DeliveryStatus{StatusCode: 401}}, "http://localhost", zap.NewNop())
	status = m.NotifyAccepted(context.Background(), "booker@x.io", "Bea", sampleBooking())
	assert.False(t, status.Success)
	assert.Equal(t, 401, status.StatusCode)
}

type fakeSendClient struct {
	got  *mail.SGMailV3
	resp *rest.Response
	err  error
}

func (f *fakeSendClient) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.got = email
	return f.resp, f.err
}

func TestSendGridGateway(t *testing.T) {
	_, err := NewSendGridGateway("", "from@x.io", "S_Movers")
	assert.Error(t, err)

	client := &fakeSendClient{resp: &rest.Response{StatusCode: 202}}
	gw := &SendGridGateway{client: client, from: mail.NewEmail("S_Movers", "from@x.io")}

	status, err := gw.Send(context.Background(), "to@x.io", "Hello", "<p>hi</p>")
	require.NoError(t, err)
	assert.True(t, status.Success)
	assert.Equal(t, 202, status.StatusCode)
	require.NotNil(t, client.got)
	assert.Equal(t, "Hello", client.got.Subject)
	assert.Equal(t, "from@x.io", client.got.From.Address)

	client.resp = &rest.Response{StatusCode: 400}
	status, err = gw.Send(context.Background(), "to@x.io", "Hello", "<p>hi</p>")
	require.NoError(t, err)
	assert.False(t, status.Success)

	client.err = errors.New("timeout")
	_, err = gw.Send(context.Background(), "to@x.io", "Hello", "<p>hi</p>")
	assert.Error(t, err)
}
