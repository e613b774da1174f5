// Package worker drives queued jobs to completion. One sequential consumer:
// the engine backend holds at most one loaded model set, so at most one job
// is in flight.
package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/synthbed/tts-api/internal/audiostorage"
	"github.com/synthbed/tts-api/internal/engine"
	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/store/model"
	"github.com/synthbed/tts-api/internal/webhook"
	"github.com/synthbed/tts-api/pkg/metrics"
)

type Worker struct {
	store        store.Store
	engine       engine.Engine
	storage      audiostorage.Storage
	dispatcher   *webhook.Dispatcher
	pollInterval time.Duration
	running      atomic.Bool
}

func New(s store.Store, eng engine.Engine, storage audiostorage.Storage, dispatcher *webhook.Dispatcher, pollInterval time.Duration) *Worker {
	return &Worker{
		store:        s,
		engine:       eng,
		storage:      storage,
		dispatcher:   dispatcher,
		pollInterval: pollInterval,
	}
}

// Running reports whether the loop is active. Exposed for health reporting.
func (w *Worker) Running() bool {
	return w.running.Load()
}

// Run polls the queue until the context is cancelled. An empty queue costs
// one poll interval of latency; admission and status queries stay responsive
// because synthesis runs off this goroutine's critical path.
func (w *Worker) Run(ctx context.Context) {
	logger := zap.S().Named("worker")
	logger.Info("background worker started")

	w.running.Store(true)
	defer w.running.Store(false)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("background worker stopped")
			return
		case <-ticker.C:
			id, err := w.store.Queue().Dequeue(ctx)
			if err != nil {
				if !errors.Is(err, store.ErrQueueEmpty) {
					logger.Errorw("dequeue failed", "error", err)
				}
			} else {
				logger.Infow("processing job from queue", "job_id", id, "queue_length", w.store.Queue().Len(ctx))
				w.process(ctx, id)
			}
			metrics.UpdateQueueMetrics(w.store.Queue().Len(ctx), w.store.Job().CountPending(ctx))
		}
	}
}

func (w *Worker) process(ctx context.Context, id string) {
	logger := zap.S().Named("worker")

	job, err := w.store.Job().Get(ctx, id)
	if err != nil {
		logger.Warnw("job not found for processing", "job_id", id)
		return
	}

	// Cancellation may have raced the dequeue; skip without side effects.
	if job.Status == model.JobStatusCancelled {
		logger.Infow("job cancelled, skipping", "job_id", id)
		return
	}

	startedAt := time.Now().UTC()
	if _, err := w.store.Job().UpdateStatus(ctx, id, model.JobStatusProcessing, store.WithStartedAt(startedAt)); err != nil {
		// Cancellation can land between the status check above and this
		// commit; the store's transition gate refuses the update then.
		if errors.Is(err, store.ErrInvalidTransition) {
			logger.Infow("job no longer pending, skipping", "job_id", id)
			return
		}
		logger.Warnw("failed to mark job processing", "job_id", id, "error", err)
		return
	}
	logger.Infow("job processing started", "job_id", id, "language", job.Language, "text_length", len(job.Text))

	// Model acquisition may block for a long time on first use per language.
	if err := w.engine.EnsureReady(ctx, job.Language); err != nil {
		w.fail(ctx, job, startedAt, err.Error())
		return
	}

	type synthResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan synthResult, 1)
	go func() {
		data, err := w.engine.Synthesize(ctx, job.Text, job.Language)
		resultCh <- synthResult{data: data, err: err}
	}()

	var res synthResult
	select {
	case res = <-resultCh:
	case <-ctx.Done():
		// Shutdown mid-synthesis; the reaper resolves the stuck record.
		logger.Warnw("shutdown during synthesis", "job_id", id)
		return
	}
	if res.err != nil {
		w.fail(ctx, job, startedAt, res.err.Error())
		return
	}

	reference, err := w.storage.Save(ctx, id, res.data)
	if err != nil {
		w.fail(ctx, job, startedAt, err.Error())
		return
	}

	completedAt := time.Now().UTC()
	if _, err := w.store.Job().UpdateStatus(ctx, id, model.JobStatusCompleted,
		store.WithCompletedAt(completedAt),
		store.WithAudioURL("/v1/download/"+id)); err != nil {
		logger.Warnw("failed to mark job completed", "job_id", id, "error", err)
		return
	}

	duration := completedAt.Sub(startedAt)
	logger.Infow("job completed", "job_id", id, "language", job.Language,
		"audio_ref", reference, "duration", duration)
	metrics.RecordJobCompletedMetric(job.Language, string(model.JobStatusCompleted), duration)

	w.notify(id)
}

func (w *Worker) fail(ctx context.Context, job *model.Job, startedAt time.Time, message string) {
	logger := zap.S().Named("worker")

	completedAt := time.Now().UTC()
	if _, err := w.store.Job().UpdateStatus(ctx, job.ID, model.JobStatusFailed,
		store.WithCompletedAt(completedAt),
		store.WithErrorMessage(message)); err != nil {
		logger.Warnw("failed to mark job failed", "job_id", job.ID, "error", err)
		return
	}

	duration := completedAt.Sub(startedAt)
	logger.Errorw("job failed", "job_id", job.ID, "language", job.Language,
		"error", message, "duration", duration)
	metrics.RecordJobCompletedMetric(job.Language, string(model.JobStatusFailed), duration)

	w.notify(job.ID)
}

// notify fires the webhook in its own goroutine so delivery backoff never
// delays the next poll. A delivery failure does not re-fail the job.
func (w *Worker) notify(id string) {
	go func() {
		if err := w.dispatcher.Dispatch(context.Background(), id); err != nil {
			zap.S().Named("worker").Warnw("webhook delivery failed", "job_id", id, "error", err)
		}
	}()
}
