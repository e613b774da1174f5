// Package v1 holds the wire types of the public HTTP API.
package v1

import "time"

type Error struct {
	Error     string  `json:"error"`
	Message   string  `json:"message"`
	RequestID *string `json:"request_id,omitempty"`
}

type CreateJobRequest struct {
	Text       string `json:"text" validate:"required,text_length"`
	Language   string `json:"language"`
	WebhookURL string `json:"webhook_url" validate:"required,webhook_url"`
}

type CreateJobResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
}

type Job struct {
	JobID            string     `json:"job_id"`
	Status           string     `json:"status"`
	Language         string     `json:"language"`
	TextLength       int        `json:"text_length"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	AudioURL         *string    `json:"audio_url,omitempty"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	WebhookDelivered bool       `json:"webhook_delivered"`
	WebhookAttempts  int        `json:"webhook_attempts"`
}

type JobList struct {
	Jobs     []Job `json:"jobs"`
	Total    int   `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type Language struct {
	Language string `json:"language"`
	Model    string `json:"model"`
	Loaded   bool   `json:"loaded"`
	Default  bool   `json:"default"`
}

type LanguageList struct {
	Languages []Language `json:"languages"`
	Default   string     `json:"default"`
}

type Health struct {
	Status          string   `json:"status"`
	WorkerRunning   bool     `json:"worker_running"`
	QueueLength     int      `json:"queue_length"`
	PendingJobs     int      `json:"pending_jobs"`
	LoadedLanguages []string `json:"loaded_languages"`
}

type Info struct {
	Name        string            `json:"name"`
	VersionName string            `json:"version"`
	GitCommit   string            `json:"git_commit"`
	Endpoints   map[string]string `json:"endpoints"`
	Limits      Limits            `json:"limits"`
}

type Limits struct {
	MaxTextLength      int `json:"max_text_length"`
	MaxPendingJobs     int `json:"max_pending_jobs"`
	RateLimitPerMinute int `json:"rate_limit_per_minute"`
	RateLimitPerHour   int `json:"rate_limit_per_hour"`
}
