package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	subsystem = "tts"

	jobCreatedTotal      = "job_created_total"
	jobStatusTotal       = "job_status_total"
	jobDurationSeconds   = "job_processing_duration_seconds"
	jobQueueLength       = "job_queue_length"
	jobPendingTotal      = "job_pending_total"
	webhookDeliveryTotal = "webhook_delivery_total"
	webhookRetryTotal    = "webhook_retry_total"
	webhookDuration      = "webhook_delivery_duration_seconds"

	// Labels
	languageLabel = "language"
	statusLabel   = "status"
)

/**
* Metrics definition
**/
var jobCreatedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      jobCreatedTotal,
		Help:      "number of async jobs created",
	},
	[]string{languageLabel},
)

var jobStatusTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      jobStatusTotal,
		Help:      "number of jobs by terminal status",
	},
	[]string{statusLabel, languageLabel},
)

var jobDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      jobDurationSeconds,
		Help:      "job processing duration in seconds",
		Buckets:   []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0, 300.0},
	},
	[]string{languageLabel, statusLabel},
)

var jobQueueLengthMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: subsystem,
		Name:      jobQueueLength,
		Help:      "current number of job ids in the work queue",
	},
)

var jobPendingTotalMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: subsystem,
		Name:      jobPendingTotal,
		Help:      "current number of jobs in pending status",
	},
)

var webhookDeliveryTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      webhookDeliveryTotal,
		Help:      "number of webhook delivery outcomes",
	},
	[]string{statusLabel},
)

var webhookRetryTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      webhookRetryTotal,
		Help:      "number of webhook retry attempts",
	},
)

var webhookDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      webhookDuration,
		Help:      "webhook delivery duration in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
	},
	[]string{statusLabel},
)

// IncreaseJobCreatedMetric records a new job admission.
func IncreaseJobCreatedMetric(language string) {
	jobCreatedTotalMetric.With(prometheus.Labels{languageLabel: language}).Inc()
}

// RecordJobCompletedMetric records a terminal job outcome and its duration.
func RecordJobCompletedMetric(language string, status string, duration time.Duration) {
	labels := prometheus.Labels{statusLabel: status, languageLabel: language}
	jobStatusTotalMetric.With(labels).Inc()
	jobDurationMetric.With(labels).Observe(duration.Seconds())
}

// RecordWebhookDeliveryMetric records a webhook delivery outcome.
func RecordWebhookDeliveryMetric(success bool, duration time.Duration, retries int) {
	status := "failure"
	if success {
		status = "success"
	}
	webhookDeliveryTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
	webhookDurationMetric.With(prometheus.Labels{statusLabel: status}).Observe(duration.Seconds())
	if retries > 0 {
		webhookRetryTotalMetric.Add(float64(retries))
	}
}

// UpdateQueueMetrics refreshes the queue/pending gauges.
func UpdateQueueMetrics(queueLength int, pendingCount int) {
	jobQueueLengthMetric.Set(float64(queueLength))
	jobPendingTotalMetric.Set(float64(pendingCount))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobCreatedTotalMetric)
	prometheus.MustRegister(jobStatusTotalMetric)
	prometheus.MustRegister(jobDurationMetric)
	prometheus.MustRegister(jobQueueLengthMetric)
	prometheus.MustRegister(jobPendingTotalMetric)
	prometheus.MustRegister(webhookDeliveryTotalMetric)
	prometheus.MustRegister(webhookRetryTotalMetric)
	prometheus.MustRegister(webhookDurationMetric)
}
