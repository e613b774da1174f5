package store

import (
	"context"

	"github.com/synthbed/tts-api/internal/store/model"
)

type jobStore struct {
	data *registry
}

func (s *jobStore) Create(ctx context.Context, job model.Job, pendingCeiling int) (*model.Job, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	if pendingCeiling > 0 && s.pendingCountLocked() >= pendingCeiling {
		return nil, ErrPendingCeiling
	}

	j := job
	s.data.jobs[j.ID] = &j
	s.data.order = append(s.data.order, j.ID)
	s.data.queue = append(s.data.queue, j.ID)

	out := j
	return &out, nil
}

func (s *jobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	j, ok := s.data.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	out := *j
	return &out, nil
}

func (s *jobStore) List(ctx context.Context, offset int, limit int) ([]model.Job, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}

	// order holds creation order; walk it backwards for newest-first.
	n := len(s.data.order)
	out := make([]model.Job, 0, limit)
	for i := n - 1 - offset; i >= 0 && len(out) < limit; i-- {
		if j, ok := s.data.jobs[s.data.order[i]]; ok {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *jobStore) Count(ctx context.Context) int {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	return len(s.data.jobs)
}

func (s *jobStore) CountPending(ctx context.Context) int {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	return s.pendingCountLocked()
}

func (s *jobStore) pendingCountLocked() int {
	count := 0
	for _, j := range s.data.jobs {
		if j.Status == model.JobStatusPending {
			count++
		}
	}
	return count
}

func (s *jobStore) UpdateStatus(ctx context.Context, id string, status model.Status, opts ...UpdateOption) (*model.Job, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	j, ok := s.data.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	// Check-and-update under one lock so concurrent writers (worker,
	// cancellation, reaper) cannot race a job out of a terminal state.
	if !j.Status.CanTransition(status) {
		return nil, ErrInvalidTransition
	}

	j.Status = status
	for _, opt := range opts {
		opt(j)
	}

	out := *j
	return &out, nil
}

func (s *jobStore) UpdateWebhookStatus(ctx context.Context, id string, delivered bool, attempts int) (*model.Job, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	j, ok := s.data.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	j.WebhookDelivered = delivered
	j.WebhookAttempts = attempts

	out := *j
	return &out, nil
}

func (s *jobStore) Delete(ctx context.Context, id string) bool {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	if _, ok := s.data.jobs[id]; !ok {
		return false
	}
	delete(s.data.jobs, id)

	for i, v := range s.data.order {
		if v == id {
			s.data.order = append(s.data.order[:i], s.data.order[i+1:]...)
			break
		}
	}
	for i, v := range s.data.queue {
		if v == id {
			s.data.queue = append(s.data.queue[:i], s.data.queue[i+1:]...)
			break
		}
	}
	return true
}
