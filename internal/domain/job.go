package domain

import (
	"encoding/json"
	"time"
)

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCancelled  JobStatus = "CANCELLED"
	JobStatusExpired    JobStatus = "EXPIRED"
)

// Terminal reports whether the status is a final lifecycle state.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled, JobStatusExpired:
		return true
	}
	return false
}

const (
	// DefaultMaxRetries bounds automatic re-attempts for a job.
	DefaultMaxRetries = 3
	// MaxRetriesCap is the highest max_retries a request may ask for.
	MaxRetriesCap = 5
	// DefaultPriority sits in the middle of the 1..10 priority range.
	DefaultPriority = 5
)

// Job is one asynchronous content-generation request. The database row is
// the source of truth for its state; the task queue only delivers work.
type Job struct {
	ID            int64
	JobID         string
	UserID        string
	ContentType   string
	Status        JobStatus
	Priority      int
	Provider      string
	Model         string
	RequestParams json.RawMessage
	ResultContent string
	TokensUsed    int
	Cost          float64
	ErrorMessage  string
	ErrorDetails  json.RawMessage
	RetryCount    int
	MaxRetries    int
	NextRetryAt   *time.Time
	ExpiresAt     *time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	ProcessingMs  *int64
	Metadata      json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Progress maps lifecycle states onto a coarse completion percentage for
// clients that render a bar: queued work has not started, processing is
// reported at the halfway mark, every terminal state is done.
func (j *Job) Progress() int {
	switch j.Status {
	case JobStatusQueued:
		return 0
	case JobStatusProcessing:
		return 50
	default:
		return 100
	}
}

// CanRetry reports whether a retry request may spawn a follow-up job.
func (j *Job) CanRetry() bool {
	if j.Status != JobStatusFailed && j.Status != JobStatusCancelled {
		return false
	}
	return j.RetryCount < j.MaxRetries
}

// Cancellable reports whether the job may still be cancelled by its owner.
func (j *Job) Cancellable() bool {
	return j.Status == JobStatusQueued || j.Status == JobStatusProcessing
}

// EventChannel returns the per-user channel name job status events are
// published on.
func EventChannel(userID string) string {
	return "jobs." + userID
}
