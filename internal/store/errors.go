package store

import "errors"

var (
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueEmpty is the empty sentinel of WorkQueue.Dequeue.
	ErrQueueEmpty = errors.New("work queue is empty")
	// ErrPendingCeiling is returned when admission control refuses a create.
	ErrPendingCeiling = errors.New("pending jobs ceiling reached")
	// ErrInvalidTransition is returned when a status update would violate
	// the job state machine.
	ErrInvalidTransition = errors.New("illegal status transition")
)
