package store

import (
	"time"

	"github.com/synthbed/tts-api/internal/store/model"
)

// UpdateOption mutates optional job fields during a status update.
type UpdateOption func(j *model.Job)

func WithStartedAt(t time.Time) UpdateOption {
	return func(j *model.Job) {
		j.StartedAt = &t
	}
}

func WithCompletedAt(t time.Time) UpdateOption {
	return func(j *model.Job) {
		j.CompletedAt = &t
	}
}

func WithAudioURL(url string) UpdateOption {
	return func(j *model.Job) {
		j.AudioURL = &url
	}
}

func WithErrorMessage(msg string) UpdateOption {
	return func(j *model.Job) {
		j.ErrorMessage = &msg
	}
}
