package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"smovers/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "id"}, nil
}

var payload = models.ExpiryTask{BookerEmail: "bea@x.io", BookingID: "b-1", Kind: models.RoleHelper}

func TestExpiryTaskRoundTrip(t *testing.T) {
	task, opts, err := NewExpiryTask(payload, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, TypeProposalExpire, task.Type())

	byType := map[asynq.OptionType]any{}
	for _, o := range opts {
		byType[o.Type()] = o.Value()
	}
	assert.Equal(t, "expire:b-1", byType[asynq.TaskIDOpt])
	assert.Equal(t, QueueProposals, byType[asynq.QueueOpt])
	assert.Equal(t, time.Hour, byType[asynq.ProcessInOpt])

	got, err := ParseExpiryTask(task)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestParseExpiryTaskRejectsBadPayloads(t *testing.T) {
	_, err := ParseExpiryTask(asynq.NewTask(TypeProposalExpire, []byte("{")))
	assert.Error(t, err)

	_, err = ParseExpiryTask(asynq.NewTask(TypeProposalExpire, []byte(`{"bookerEmail":"bea@x.io"}`)))
	assert.Error(t, err)
}

func TestAsynqScheduler(t *testing.T) {
	fake := &fakeEnqueuer{}
	s := &AsynqScheduler{client: fake}

	require.NoError(t, s.ScheduleExpiry(context.Background(), payload, 15*time.Minute))
	require.Len(t, fake.tasks, 1)
	assert.Equal(t, TypeProposalExpire, fake.tasks[0].Type())

	// A duplicate schedule for the same booking is not an error.
	fake.err = asynq.ErrTaskIDConflict
	assert.NoError(t, s.ScheduleExpiry(context.Background(), payload, 15*time.Minute))

	fake.err = errors.New("dial tcp: connection refused")
	err := s.ScheduleExpiry(context.Background(), payload, 15*time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b-1")
}
