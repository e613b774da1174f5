package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/store/model"
	"github.com/synthbed/tts-api/pkg/metrics"
)

// Reaper fails jobs stuck in processing past the timeout. It protects
// against a worker crash mid-job leaving a record permanently in flight.
type Reaper struct {
	store    store.Store
	timeout  time.Duration
	interval time.Duration
}

func NewReaper(s store.Store, timeout time.Duration, interval time.Duration) *Reaper {
	return &Reaper{store: s, timeout: timeout, interval: interval}
}

func (r *Reaper) Run(ctx context.Context) {
	logger := zap.S().Named("reaper")
	logger.Infow("stale-job reaper started", "timeout", r.timeout, "interval", r.interval)

	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: 2 * time.Second})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stale-job reaper stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many jobs were timed out.
func (r *Reaper) Sweep(ctx context.Context) int {
	logger := zap.S().Named("reaper")

	jobs, err := r.store.Job().List(ctx, 0, r.store.Job().Count(ctx))
	if err != nil {
		logger.Errorw("listing jobs failed", "error", err)
		return 0
	}

	now := time.Now().UTC()
	reaped := 0
	for _, job := range jobs {
		if job.Status != model.JobStatusProcessing || job.StartedAt == nil {
			continue
		}
		age := now.Sub(*job.StartedAt)
		if age <= r.timeout {
			continue
		}

		if _, err := r.store.Job().UpdateStatus(ctx, job.ID, model.JobStatusFailed,
			store.WithCompletedAt(now),
			store.WithErrorMessage(fmt.Sprintf("job timed out after %s", r.timeout))); err != nil {
			// the worker may have finished the job since the listing
			if errors.Is(err, store.ErrInvalidTransition) {
				continue
			}
			logger.Warnw("failed to reap job", "job_id", job.ID, "error", err)
			continue
		}
		metrics.RecordJobCompletedMetric(job.Language, string(model.JobStatusFailed), age)
		logger.Warnw("job timed out", "job_id", job.ID, "processing_for", age)
		reaped++
	}

	if reaped > 0 {
		logger.Infow("stuck jobs cleaned", "count", reaped)
	}
	return reaped
}
