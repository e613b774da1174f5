// Package audiostorage persists synthesized audio artifacts by job id.
package audiostorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/synthbed/tts-api/internal/config"
)

// ErrAudioNotFound is returned when no artifact exists for a job id.
var ErrAudioNotFound = errors.New("audio not found")

type Stats struct {
	FileCount  int
	TotalBytes int64
}

type Storage interface {
	// Save persists the artifact and returns a backend-specific reference.
	Save(ctx context.Context, jobID string, data []byte) (string, error)
	Fetch(ctx context.Context, jobID string) ([]byte, error)
	Delete(ctx context.Context, jobID string) bool
	// PurgeOlderThan removes artifacts older than age and returns the count.
	PurgeOlderThan(ctx context.Context, age time.Duration) (int, error)
	Stats(ctx context.Context) (Stats, error)
}

const (
	localStorageType = "local"
	s3StorageType    = "s3"
)

// New builds the storage backend selected by configuration.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Type {
	case s3StorageType:
		return NewS3Storage(ctx, cfg.Storage.S3.Endpoint, cfg.Storage.S3.Bucket,
			cfg.Storage.S3.AccessKey, cfg.Storage.S3.SecretKey, cfg.Storage.S3.UseSSL)
	case localStorageType, "":
		return NewLocalStorage(cfg.Storage.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

func audioObjectName(jobID string) string {
	return jobID + ".wav"
}
