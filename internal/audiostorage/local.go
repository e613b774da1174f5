package audiostorage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LocalStorage keeps artifacts as <dir>/<jobID>.wav on the local filesystem.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating audio storage directory")
	}
	zap.S().Named("audio_storage").Infow("local storage initialized", "dir", dir)
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) path(jobID string) string {
	return filepath.Join(s.dir, audioObjectName(jobID))
}

func (s *LocalStorage) Save(ctx context.Context, jobID string, data []byte) (string, error) {
	path := s.path(jobID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "saving audio for job %s", jobID)
	}
	zap.S().Named("audio_storage").Debugw("audio saved", "job_id", jobID, "path", path, "size_bytes", len(data))
	return path, nil
}

func (s *LocalStorage) Fetch(ctx context.Context, jobID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAudioNotFound
		}
		return nil, errors.Wrapf(err, "reading audio for job %s", jobID)
	}
	return data, nil
}

func (s *LocalStorage) Delete(ctx context.Context, jobID string) bool {
	if err := os.Remove(s.path(jobID)); err != nil {
		return false
	}
	return true
}

func (s *LocalStorage) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	deleted := 0

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.wav"))
	if err != nil {
		return 0, err
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				zap.S().Named("audio_storage").Warnw("purge failed", "path", path, "error", err)
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}

func (s *LocalStorage) Stats(ctx context.Context) (Stats, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.wav"))
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{FileCount: len(matches)}
	for _, path := range matches {
		if info, err := os.Stat(path); err == nil {
			stats.TotalBytes += info.Size()
		}
	}
	return stats, nil
}
