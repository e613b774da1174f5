package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the closed set of job lifecycle states.
type Status string

const (
	JobStatusPending    Status = "pending"
	JobStatusProcessing Status = "processing"
	JobStatusCompleted  Status = "completed"
	JobStatusFailed     Status = "failed"
	JobStatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	case JobStatusPending, JobStatusProcessing:
		return false
	default:
		return false
	}
}

// CanTransition reports whether s -> next is a legal lifecycle transition.
// pending -> processing|cancelled, processing -> completed|failed.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusCancelled
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return false
	default:
		return false
	}
}

// Job is one unit of asynchronous synthesis work.
type Job struct {
	ID         string
	Text       string
	Language   string
	WebhookURL string
	Status     Status

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	AudioURL     *string
	ErrorMessage *string

	WebhookDelivered bool
	WebhookAttempts  int
}

// NewJob builds a pending job with a fresh identifier.
func NewJob(text string, language string, webhookURL string) Job {
	return Job{
		ID:         NewJobID(),
		Text:       text,
		Language:   language,
		WebhookURL: webhookURL,
		Status:     JobStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewJobID returns an opaque job identifier.
func NewJobID() string {
	u := uuid.New()
	return fmt.Sprintf("job_%x", u[:8])
}
