package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"smovers/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "smovers.bookings"}

	b := models.Booking{
		ID:          "b-1",
		HelperEmail: "hal@x.io",
		Date:        time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
	}
	rating := 4
	ev := NewBookingEvent("bea@x.io", b, time.Date(2026, 4, 11, 12, 0, 0, 0, time.UTC))
	ev.Actor = models.RoleBooker
	ev.Rating = &rating

	require.NoError(t, p.PublishJSON(context.Background(), KeyBookingRated, ev))
	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "smovers.bookings", got.exchange)
	assert.Equal(t, KeyBookingRated, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, "b-1", decoded["bookingId"])
	assert.Equal(t, "hal@x.io", decoded["counterpartEmail"])
	assert.Equal(t, "helper", decoded["kind"])
	assert.Equal(t, "2026-04-10", decoded["date"])
	assert.Equal(t, float64(4), decoded["rating"])

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublishJSONRejectsUnencodable(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "x"}
	assert.Error(t, p.PublishJSON(context.Background(), KeyBookingRequested, make(chan int)))
	assert.Empty(t, ch.sent)
}
