package service

import (
	"fmt"
	"strings"

	"github.com/synthbed/tts-api/internal/store/model"
)

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id string) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("job %s not found", id)}
}

type ErrJobNotCancellable struct {
	error
	Status model.Status
}

func NewErrJobNotCancellable(id string, status model.Status) *ErrJobNotCancellable {
	return &ErrJobNotCancellable{
		error:  fmt.Errorf("job %s cannot be cancelled in status %s, only pending jobs can be cancelled", id, status),
		Status: status,
	}
}

type ErrQueueFull struct {
	error
	Pending int
	Ceiling int
}

func NewErrQueueFull(pending int, ceiling int) *ErrQueueFull {
	return &ErrQueueFull{
		error:   fmt.Errorf("too many pending jobs: %d of %d allowed", pending, ceiling),
		Pending: pending,
		Ceiling: ceiling,
	}
}

type ErrUnsupportedLanguage struct {
	error
	Supported []string
}

func NewErrUnsupportedLanguage(language string, supported []string) *ErrUnsupportedLanguage {
	return &ErrUnsupportedLanguage{
		error:     fmt.Errorf("language %q is not supported, supported: %s", language, strings.Join(supported, ", ")),
		Supported: supported,
	}
}

type ErrInvalidRequest struct {
	error
	Field string
}

func NewErrInvalidRequest(field string, message string) *ErrInvalidRequest {
	return &ErrInvalidRequest{error: fmt.Errorf("invalid %s: %s", field, message), Field: field}
}

type ErrAudioNotReady struct {
	error
	Status model.Status
}

func NewErrAudioNotReady(id string, status model.Status) *ErrAudioNotReady {
	return &ErrAudioNotReady{
		error:  fmt.Errorf("job %s is in status %s, audio is only available for completed jobs", id, status),
		Status: status,
	}
}

type ErrAudioExpired struct {
	error
}

func NewErrAudioExpired(id string) *ErrAudioExpired {
	return &ErrAudioExpired{fmt.Errorf("audio for job %s has expired or been deleted", id)}
}
