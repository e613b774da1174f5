package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/synthbed/tts-api/internal/store/model"
)

// Store is the single synchronization boundary around the job registry and
// the work queue. Both views share one lock so cross-cutting operations
// (admitted create, delete-with-dequeue) are atomic.
type Store interface {
	Job() JobStore
	Queue() WorkQueue
	Close() error
}

type JobStore interface {
	// Create admits, registers and enqueues a job in one step. When the
	// number of pending jobs is at or above pendingCeiling the job is
	// refused with ErrPendingCeiling. A ceiling <= 0 disables admission
	// control.
	Create(ctx context.Context, job model.Job, pendingCeiling int) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	// List returns jobs ordered newest-created-first.
	List(ctx context.Context, offset int, limit int) ([]model.Job, error)
	Count(ctx context.Context) int
	CountPending(ctx context.Context) int
	UpdateStatus(ctx context.Context, id string, status model.Status, opts ...UpdateOption) (*model.Job, error)
	UpdateWebhookStatus(ctx context.Context, id string, delivered bool, attempts int) (*model.Job, error)
	// Delete removes the job record and, if present, its queue entry.
	Delete(ctx context.Context, id string) bool
}

type WorkQueue interface {
	Enqueue(ctx context.Context, id string)
	// Dequeue pops the oldest id or returns ErrQueueEmpty.
	Dequeue(ctx context.Context) (string, error)
	// Remove drops the first occurrence of id without touching the job record.
	Remove(ctx context.Context, id string) bool
	Len(ctx context.Context) int
}

type registry struct {
	mu    sync.RWMutex
	jobs  map[string]*model.Job
	order []string
	queue []string
}

type inMemoryStore struct {
	data *registry
}

// NewStore builds the in-memory store. State lives for the process lifetime
// only; retention is bounded by process memory.
func NewStore() Store {
	return &inMemoryStore{
		data: &registry{
			jobs: make(map[string]*model.Job),
		},
	}
}

func (s *inMemoryStore) Job() JobStore {
	return &jobStore{data: s.data}
}

func (s *inMemoryStore) Queue() WorkQueue {
	return &workQueue{data: s.data}
}

func (s *inMemoryStore) Close() error {
	zap.S().Named("store").Debug("closing in-memory store")
	return nil
}
