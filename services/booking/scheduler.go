package booking

import (
	"context"
	"sync"
	"time"

	"smovers/models"

	"go.uber.org/zap"
)

// TimerScheduler runs expiry checks in-process with time.AfterFunc. Pending
// checks are lost on restart; the asynq scheduler in services/tasks is the
// durable alternative.
type TimerScheduler struct {
	mu      sync.Mutex
	handler ExpiryHandler
	timers  map[string]*time.Timer
	stopped bool
	logger  *zap.Logger
}

func NewTimerScheduler(logger *zap.Logger) *TimerScheduler {
	return &TimerScheduler{timers: make(map[string]*time.Timer), logger: logger}
}

// Bind sets the function each timer calls when it fires.
func (s *TimerScheduler) Bind(handler ExpiryHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

func (s *TimerScheduler) ScheduleExpiry(_ context.Context, task models.ExpiryTask, after time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return context.Canceled
	}
	if _, ok := s.timers[task.BookingID]; ok {
		return nil
	}
	s.timers[task.BookingID] = time.AfterFunc(after, func() { s.fire(task) })
	return nil
}

func (s *TimerScheduler) fire(task models.ExpiryTask) {
	s.mu.Lock()
	delete(s.timers, task.BookingID)
	handler := s.handler
	s.mu.Unlock()

	if handler == nil {
		s.logger.Error("expiry fired with no handler bound", zap.String("bookingId", task.BookingID))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := handler(ctx, task); err != nil {
		s.logger.Error("expiry check failed", zap.String("bookingId", task.BookingID), zap.Error(err))
	}
}

// Pending returns how many checks are waiting to fire.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending check.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
