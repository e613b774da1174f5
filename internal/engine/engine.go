package engine

import (
	"context"
	"fmt"
	"strings"
)

// Engine produces audio from text. Implementations may block substantially
// on first use per language while a model is acquired.
type Engine interface {
	EnsureReady(ctx context.Context, language string) error
	Synthesize(ctx context.Context, text string, language string) ([]byte, error)
}

// Model is one loaded voice. Close releases its resources.
type Model interface {
	Generate(ctx context.Context, text string) ([]byte, error)
	Close()
}

// Loader acquires the model backing a language. The heavy step.
type Loader interface {
	Load(ctx context.Context, language string, modelName string) (Model, error)
}

type UnsupportedLanguageError struct {
	Language  string
	Supported []string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q, supported: %s", e.Language, strings.Join(e.Supported, ", "))
}

type LoadError struct {
	Language string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load model for %q: %v", e.Language, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
