package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/store/model"
)

func TestReaperFailsStaleProcessingJobs(t *testing.T) {
	s := store.NewStore()

	stale, err := s.Job().Create(context.Background(), model.NewJob("stuck", "oromo", "http://cb.local/hook"), 100)
	require.NoError(t, err)
	_, err = s.Job().UpdateStatus(context.Background(), stale.ID, model.JobStatusProcessing,
		store.WithStartedAt(time.Now().UTC().Add(-11*time.Minute)))
	require.NoError(t, err)

	fresh, err := s.Job().Create(context.Background(), model.NewJob("in flight", "oromo", "http://cb.local/hook"), 100)
	require.NoError(t, err)
	_, err = s.Job().UpdateStatus(context.Background(), fresh.ID, model.JobStatusProcessing,
		store.WithStartedAt(time.Now().UTC().Add(-1*time.Minute)))
	require.NoError(t, err)

	pending, err := s.Job().Create(context.Background(), model.NewJob("waiting", "oromo", "http://cb.local/hook"), 100)
	require.NoError(t, err)

	r := NewReaper(s, 10*time.Minute, time.Minute)
	reaped := r.Sweep(context.Background())
	assert.Equal(t, 1, reaped)

	timedOut, err := s.Job().Get(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, timedOut.Status)
	require.NotNil(t, timedOut.ErrorMessage)
	assert.Equal(t, "job timed out after 10m0s", *timedOut.ErrorMessage)
	assert.NotNil(t, timedOut.CompletedAt)

	untouched, err := s.Job().Get(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, untouched.Status)

	stillPending, err := s.Job().Get(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, stillPending.Status)
}

func TestReaperIgnoresJobsAtTheBoundary(t *testing.T) {
	s := store.NewStore()

	job, err := s.Job().Create(context.Background(), model.NewJob("edge", "oromo", "http://cb.local/hook"), 100)
	require.NoError(t, err)
	_, err = s.Job().UpdateStatus(context.Background(), job.ID, model.JobStatusProcessing,
		store.WithStartedAt(time.Now().UTC().Add(-10*time.Minute+time.Second)))
	require.NoError(t, err)

	r := NewReaper(s, 10*time.Minute, time.Minute)
	assert.Equal(t, 0, r.Sweep(context.Background()))
}
