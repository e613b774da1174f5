package service

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/synthbed/tts-api/internal/audiostorage"
	"github.com/synthbed/tts-api/internal/engine"
	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/store/model"
	"github.com/synthbed/tts-api/internal/webhook"
	"github.com/synthbed/tts-api/pkg/metrics"
)

// MaxTextLength caps the size of a single synthesis request.
const MaxTextLength = 50000

// JobService owns the synchronous job surface: validation, admission,
// lookup, cancellation and artifact download. Processing itself belongs to
// the worker.
type JobService struct {
	store          store.Store
	engine         *engine.Manager
	storage        audiostorage.Storage
	dispatcher     *webhook.Dispatcher
	pendingCeiling int
}

func NewJobService(s store.Store, eng *engine.Manager, storage audiostorage.Storage, dispatcher *webhook.Dispatcher, pendingCeiling int) *JobService {
	return &JobService{
		store:          s,
		engine:         eng,
		storage:        storage,
		dispatcher:     dispatcher,
		pendingCeiling: pendingCeiling,
	}
}

// CreateJob validates, admits and enqueues a new synthesis job.
func (s *JobService) CreateJob(ctx context.Context, text string, language string, webhookURL string) (*model.Job, error) {
	logger := zap.S().Named("job_service")

	if strings.TrimSpace(text) == "" {
		return nil, NewErrInvalidRequest("text", "text input cannot be empty")
	}
	if len(text) > MaxTextLength {
		return nil, NewErrInvalidRequest("text", "text input too long")
	}

	language = s.engine.Normalize(language)
	if !s.engine.IsSupported(language) {
		supported := make([]string, 0, len(s.engine.SupportedLanguages()))
		for lang := range s.engine.SupportedLanguages() {
			supported = append(supported, lang)
		}
		sort.Strings(supported)
		return nil, NewErrUnsupportedLanguage(language, supported)
	}

	if err := validateWebhookURL(webhookURL); err != nil {
		return nil, err
	}

	job, err := s.store.Job().Create(ctx, model.NewJob(text, language, webhookURL), s.pendingCeiling)
	if err != nil {
		if errors.Is(err, store.ErrPendingCeiling) {
			pending := s.store.Job().CountPending(ctx)
			logger.Warnw("job queue full", "pending_count", pending, "ceiling", s.pendingCeiling)
			return nil, NewErrQueueFull(pending, s.pendingCeiling)
		}
		return nil, err
	}

	metrics.IncreaseJobCreatedMetric(language)
	metrics.UpdateQueueMetrics(s.store.Queue().Len(ctx), s.store.Job().CountPending(ctx))

	logger.Infow("job created", "job_id", job.ID, "language", language,
		"text_length", len(text), "queue_length", s.store.Queue().Len(ctx))
	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		return nil, NewErrJobNotFound(id)
	}
	return job, nil
}

// ListJobs returns one page of jobs, newest first, plus the total count.
func (s *JobService) ListJobs(ctx context.Context, page int, pageSize int) ([]model.Job, int, error) {
	offset := (page - 1) * pageSize
	jobs, err := s.store.Job().List(ctx, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return jobs, s.store.Job().Count(ctx), nil
}

// CancelJob cancels a job while it is still pending. The record is kept;
// only the queue entry is removed. A best-effort webhook fires afterwards.
func (s *JobService) CancelJob(ctx context.Context, id string) (*model.Job, error) {
	logger := zap.S().Named("job_service")

	// One store operation; its transition gate arbitrates the race against
	// the worker's pending -> processing commit, so a job that just started
	// processing yields a conflict instead of an illegal cancellation.
	cancelled, err := s.store.Job().UpdateStatus(ctx, id, model.JobStatusCancelled,
		store.WithCompletedAt(time.Now().UTC()))
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			job, gerr := s.store.Job().Get(ctx, id)
			if gerr != nil {
				return nil, NewErrJobNotFound(id)
			}
			return nil, NewErrJobNotCancellable(id, job.Status)
		}
		return nil, NewErrJobNotFound(id)
	}
	s.store.Queue().Remove(ctx, id)
	metrics.UpdateQueueMetrics(s.store.Queue().Len(ctx), s.store.Job().CountPending(ctx))

	logger.Infow("job cancelled", "job_id", id)

	// Fire-and-forget notification; a delivery failure never surfaces here.
	go func() {
		if err := s.dispatcher.Dispatch(context.Background(), id); err != nil {
			logger.Warnw("webhook delivery failed after cancellation", "job_id", id, "error", err)
		}
	}()

	return cancelled, nil
}

// DeleteJob removes the record entirely. Administrative; normal operation
// retains terminal jobs.
func (s *JobService) DeleteJob(ctx context.Context, id string) error {
	if !s.store.Job().Delete(ctx, id) {
		return NewErrJobNotFound(id)
	}
	s.storage.Delete(ctx, id)
	return nil
}

// DownloadAudio returns the artifact bytes for a completed job.
func (s *JobService) DownloadAudio(ctx context.Context, id string) ([]byte, *model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		return nil, nil, NewErrJobNotFound(id)
	}

	if job.Status != model.JobStatusCompleted {
		return nil, nil, NewErrAudioNotReady(id, job.Status)
	}

	data, err := s.storage.Fetch(ctx, id)
	if err != nil {
		if errors.Is(err, audiostorage.ErrAudioNotFound) {
			return nil, nil, NewErrAudioExpired(id)
		}
		return nil, nil, err
	}
	return data, job, nil
}

func validateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return NewErrInvalidRequest("webhook_url", "malformed URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewErrInvalidRequest("webhook_url", "must be an absolute http(s) URL")
	}
	return nil
}
