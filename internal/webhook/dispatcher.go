package webhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/store/model"
	"github.com/synthbed/tts-api/pkg/metrics"
)

const userAgent = "tts-api-webhook/1.0"

// Dispatcher delivers signed job notifications to caller-supplied URLs.
// Delivery is terminal after maxAttempts; it never requeues itself and never
// alters job status.
type Dispatcher struct {
	store       store.Store
	secret      string
	maxAttempts int
	client      *http.Client

	// backoffUnit scales the 2^attempt wait between attempts. One second in
	// production; tests shrink it.
	backoffUnit time.Duration
}

func NewDispatcher(s store.Store, secret string, timeout time.Duration, maxAttempts int) *Dispatcher {
	return &Dispatcher{
		store:       s,
		secret:      secret,
		maxAttempts: maxAttempts,
		client:      &http.Client{Timeout: timeout},
		backoffUnit: time.Second,
	}
}

// Payload builds the notification body for a job. Derived, not stored.
func Payload(job *model.Job) map[string]any {
	var completedAt any
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}
	var audioURL any
	if job.AudioURL != nil {
		audioURL = *job.AudioURL
	}
	var errorMessage any
	if job.ErrorMessage != nil {
		errorMessage = *job.ErrorMessage
	}

	return map[string]any{
		"job_id":        job.ID,
		"status":        string(job.Status),
		"created_at":    job.CreatedAt.UTC().Format(time.RFC3339),
		"completed_at":  completedAt,
		"audio_url":     audioURL,
		"error_message": errorMessage,
		"language":      job.Language,
		"text_length":   len(job.Text),
	}
}

// Dispatch runs the full delivery cycle for a job and records the terminal
// outcome on the job record. Blocking; callers that must not wait run it in
// its own goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, jobID string) error {
	logger := zap.S().Named("webhook")

	job, err := d.store.Job().Get(ctx, jobID)
	if err != nil {
		logger.Warnw("job not found for webhook delivery", "job_id", jobID)
		return err
	}

	payload := Payload(job)
	body, err := CanonicalJSON(payload)
	if err != nil {
		return errors.Wrap(err, "serializing webhook payload")
	}

	timestamp := time.Now().Unix()
	signature := signBody(body, timestamp, d.secret)
	start := time.Now()

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err := d.post(ctx, job.WebhookURL, body, signature, timestamp, jobID, attempt)
		if err == nil {
			if _, uerr := d.store.Job().UpdateWebhookStatus(ctx, jobID, true, attempt); uerr != nil {
				logger.Warnw("failed to record webhook delivery", "job_id", jobID, "error", uerr)
			}
			metrics.RecordWebhookDeliveryMetric(true, time.Since(start), attempt-1)
			logger.Infow("webhook delivered", "job_id", jobID, "attempt", attempt)
			return nil
		}

		logger.Warnw("webhook delivery attempt failed", "job_id", jobID, "attempt", attempt, "error", err)

		if attempt < d.maxAttempts {
			wait := d.backoffUnit * (1 << attempt) // 2^attempt units
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	if _, uerr := d.store.Job().UpdateWebhookStatus(ctx, jobID, false, d.maxAttempts); uerr != nil {
		logger.Warnw("failed to record webhook failure", "job_id", jobID, "error", uerr)
	}
	metrics.RecordWebhookDeliveryMetric(false, time.Since(start), d.maxAttempts-1)
	logger.Errorw("webhook delivery failed", "job_id", jobID, "max_attempts", d.maxAttempts)
	return fmt.Errorf("webhook delivery failed after %d attempts", d.maxAttempts)
}

func (d *Dispatcher) post(ctx context.Context, url string, body []byte, signature string, timestamp int64, jobID string, attempt int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-Signature", signature)
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-Webhook-ID", jobID)
	req.Header.Set("X-Webhook-Attempt", strconv.Itoa(attempt))

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "posting webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
