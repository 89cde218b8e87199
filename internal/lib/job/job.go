// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - services enqueue tasks (producer) through JobService.Client
//   - the worker side of JobService runs the handlers (consumer)
//
// Tasks here send notification emails and retry geocoding of addresses the
// registration flow could not resolve inline.
package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/metrics"
)

// Queue names, weighted in NewJobService.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	server  *asynq.Server
	logger  *zerolog.Logger
	metrics *metrics.Metrics

	deps *handlerDeps
}

// NewJobService creates a JobService configured to use Redis from cfg.
func NewJobService(logger *zerolog.Logger, cfg *config.Config, m *metrics.Metrics) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	client := asynq.NewClient(redisOpt)

	j := &JobService{
		Client:  client,
		logger:  logger,
		metrics: m,
	}

	j.server = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			Logger:   newAsynqLogger(logger),
			LogLevel: asynqLevel(logger.GetLevel()),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Error().
					Err(err).
					Str("type", task.Type()).
					Int("retried", retried).
					Int("max_retry", maxRetry).
					Msg("background task failed")
			}),
		},
	)

	return j
}

// Start registers the task handlers and starts the worker pool. It does not
// block; Stop shuts the workers down.
func (j *JobService) Start() error {
	if j.deps == nil {
		return fmt.Errorf("job handlers not initialized")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcome, j.handleWelcomeEmailTask)
	mux.HandleFunc(TaskRequestCreated, j.handleRequestCreatedTask)
	mux.HandleFunc(TaskRequestUpdated, j.handleRequestUpdatedTask)
	mux.HandleFunc(TaskGeoRefresh, j.handleGeoRefreshTask)

	j.logger.Info().Msg("starting background job server")

	if err := j.server.Start(mux); err != nil {
		return fmt.Errorf("starting job server: %w", err)
	}
	return nil
}

// Stop gracefully stops the job server and closes client resources.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	_ = j.Client.Close()
}

func (j *JobService) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueueing %s: %w", task.Type(), err)
	}
	j.logger.Debug().
		Str("type", task.Type()).
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Msg("task enqueued")
	return nil
}
