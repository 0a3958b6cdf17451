package cron

import (
	"context"
	"errors"
	"time"

	"smovers/config"
	"smovers/models"
	"smovers/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ExpiryHandler performs the expiry check for one booking.
type ExpiryHandler func(ctx context.Context, task models.ExpiryTask) (bool, error)

// RedisOpt returns the asynq connection settings for the proposal queue.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitExpiryWorker runs the asynq worker that fires proposal expiry checks in
// the background. The returned server must be shut down by the caller.
func InitExpiryWorker(expire ExpiryHandler, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueProposals: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeProposalExpire, HandleExpiryTask(expire, logger))

	// Start async worker with retry logic
	go func() {
		logger.Info("expiry worker starting")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil || errors.Is(err, asynq.ErrServerClosed) {
				return
			}
			logger.Error("expiry worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("expiry worker: max retry attempts reached")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// HandleExpiryTask adapts an ExpiryHandler to asynq. A malformed payload is
// skipped instead of retried.
func HandleExpiryTask(expire ExpiryHandler, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseExpiryTask(task)
		if err != nil {
			logger.Error("dropping expiry task", zap.Error(err))
			return asynq.SkipRetry
		}

		expired, err := expire(ctx, p)
		if err != nil {
			logger.Warn("expiry check failed, will retry", zap.String("bookingId", p.BookingID), zap.Error(err))
			return err
		}
		logger.Debug("expiry check done", zap.String("bookingId", p.BookingID), zap.Bool("expired", expired))
		return nil
	}
}
