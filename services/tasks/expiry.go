package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smovers/models"

	"github.com/hibiken/asynq"
)

const (
	TypeProposalExpire = "proposal:expire"
	QueueProposals     = "proposals"
)

// NewExpiryTask builds the delayed task that checks a proposal after its window.
// The task id is derived from the booking so a booking is never scheduled twice.
func NewExpiryTask(payload models.ExpiryTask, after time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeProposalExpire, b)
	opts := []asynq.Option{
		asynq.ProcessIn(after),
		asynq.TaskID("expire:" + payload.BookingID),
		asynq.Queue(QueueProposals),
		asynq.MaxRetry(10),
		asynq.Retention(24 * time.Hour),
	}

	return task, opts, nil
}

// ParseExpiryTask decodes the payload of a proposal:expire task.
func ParseExpiryTask(task *asynq.Task) (models.ExpiryTask, error) {
	var p models.ExpiryTask
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid expiry payload: %w", err)
	}
	if p.BookerEmail == "" || p.BookingID == "" {
		return p, errors.New("expiry payload is missing booking reference")
	}
	return p, nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqScheduler schedules expiry checks on the redis-backed asynq queue.
type AsynqScheduler struct {
	client enqueuer
}

func NewAsynqScheduler(client *asynq.Client) *AsynqScheduler {
	return &AsynqScheduler{client: client}
}

func (s *AsynqScheduler) ScheduleExpiry(ctx context.Context, payload models.ExpiryTask, after time.Duration) error {
	task, opts, err := NewExpiryTask(payload, after)
	if err != nil {
		return err
	}
	if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("failed to enqueue expiry for %s: %w", payload.BookingID, err)
	}
	return nil
}
