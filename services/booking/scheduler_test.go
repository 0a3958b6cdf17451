package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"smovers/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTimerSchedulerFiresOnce(t *testing.T) {
	s := NewTimerScheduler(zap.NewNop())
	fired := make(chan models.ExpiryTask, 2)
	s.Bind(func(_ context.Context, task models.ExpiryTask) (bool, error) {
		fired <- task
		return true, nil
	})

	task := models.ExpiryTask{BookerEmail: "bea@x.io", BookingID: "b-1", Kind: models.RoleDriver}
	require.NoError(t, s.ScheduleExpiry(context.Background(), task, 10*time.Millisecond))
	// Scheduling the same booking again is ignored.
	require.NoError(t, s.ScheduleExpiry(context.Background(), task, 10*time.Millisecond))
	assert.Equal(t, 1, s.Pending())

	select {
	case got := <-fired:
		assert.Equal(t, task, got)
	case <-time.After(2 * time.Second):
		t.Fatal("expiry check never fired")
	}

	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
	select {
	case <-fired:
		t.Fatal("expiry check fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimerSchedulerHandlerErrorIsLogged(t *testing.T) {
	s := NewTimerScheduler(zap.NewNop())
	done := make(chan struct{})
	s.Bind(func(context.Context, models.ExpiryTask) (bool, error) {
		close(done)
		return false, errors.New("ledger unavailable")
	})
	require.NoError(t, s.ScheduleExpiry(context.Background(), models.ExpiryTask{BookingID: "b-1"}, time.Millisecond))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry check never fired")
	}
}

func TestTimerSchedulerStop(t *testing.T) {
	s := NewTimerScheduler(zap.NewNop())
	fired := make(chan struct{}, 1)
	s.Bind(func(context.Context, models.ExpiryTask) (bool, error) {
		fired <- struct{}{}
		return true, nil
	})

	require.NoError(t, s.ScheduleExpiry(context.Background(), models.ExpiryTask{BookingID: "b-1"}, 50*time.Millisecond))
	s.Stop()
	assert.Zero(t, s.Pending())

	err := s.ScheduleExpiry(context.Background(), models.ExpiryTask{BookingID: "b-2"}, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-fired:
		t.Fatal("stopped scheduler fired")
	case <-time.After(150 * time.Millisecond):
	}
}
