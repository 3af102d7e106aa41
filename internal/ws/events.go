package ws

import (
	"time"

	"bossai/internal/domain"
)

// RedisChannel carries job events between processes. The worker publishes
// here and every API instance rebroadcasts into its local hub.
const RedisChannel = "boss-ai:events"

// AdminAudience subscribes a client to every user's events.
const AdminAudience = "*"

// EventJobStatus names the single event kind pushed over the socket.
const EventJobStatus = "job.status"

// JobEvent is the wire format pushed to WebSocket clients on every job
// status transition. Completed jobs carry token and timing figures, failed
// jobs carry the error message.
type JobEvent struct {
	Event        string    `json:"event"`
	JobID        string    `json:"jobId"`
	UserID       string    `json:"userId"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	Message      string    `json:"message,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	TokensUsed   int       `json:"tokensUsed,omitempty"`
	ExecutionMs  int64     `json:"executionTimeMs,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewJobEvent builds a job.status event stamped with the current time.
func NewJobEvent(jobID, userID, status string, progress int) JobEvent {
	return JobEvent{
		Event:     EventJobStatus,
		JobID:     jobID,
		UserID:    userID,
		Status:    status,
		Progress:  progress,
		Timestamp: time.Now().UTC(),
	}
}

// Channel names the per-user event channel the client subscribed to.
func (e JobEvent) Channel() string {
	return domain.EventChannel(e.UserID)
}
