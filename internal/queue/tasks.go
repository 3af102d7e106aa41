package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeGenerationProcess is the asynq task type for content generation.
const TypeGenerationProcess = "generation:process"

// Queue names by urgency. The worker drains critical with the highest
// share of its concurrency.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// QueuePriorities is the asynq weighting used by the worker server.
var QueuePriorities = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// GenerationPayload references the job row; all job state lives in
// Postgres so a redelivered task never carries stale parameters.
type GenerationPayload struct {
	JobID string `json:"job_id"`
}

func NewGenerationTask(jobID string) (*asynq.Task, error) {
	payload, err := json.Marshal(GenerationPayload{JobID: jobID})
	if err != nil {
		return nil, fmt.Errorf("marshal generation payload: %w", err)
	}
	return asynq.NewTask(TypeGenerationProcess, payload), nil
}

// QueueFor maps a job priority (1..10) onto a queue name.
func QueueFor(priority int) string {
	switch {
	case priority >= 8:
		return QueueCritical
	case priority <= 2:
		return QueueLow
	default:
		return QueueDefault
	}
}
