package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Enqueuer submits generation tasks to Redis. Task-level retries are
// disabled: retry state lives on the job row and requeueing is explicit.
type Enqueuer struct {
	client *asynq.Client
	logger zerolog.Logger
}

func NewEnqueuer(client *asynq.Client, logger zerolog.Logger) *Enqueuer {
	return &Enqueuer{client: client, logger: logger}
}

func (e *Enqueuer) EnqueueGeneration(ctx context.Context, jobID string, priority int, delay time.Duration) error {
	task, err := NewGenerationTask(jobID)
	if err != nil {
		return err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueFor(priority)),
		asynq.MaxRetry(0),
	}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue generation task: %w", err)
	}
	e.logger.Info().Str("job_id", jobID).Str("queue", info.Queue).Dur("delay", delay).Msg("generation task enqueued")
	return nil
}
