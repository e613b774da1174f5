package audiostorage

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

// RetentionSweeper periodically purges artifacts past the retention age.
// Housekeeping only; job records are unaffected.
type RetentionSweeper struct {
	storage  Storage
	age      time.Duration
	interval time.Duration
}

func NewRetentionSweeper(storage Storage, age time.Duration, interval time.Duration) *RetentionSweeper {
	return &RetentionSweeper{storage: storage, age: age, interval: interval}
}

func (s *RetentionSweeper) Run(ctx context.Context) {
	logger := zap.S().Named("retention_sweeper")
	logger.Infow("retention sweeper started", "age", s.age, "interval", s.interval)

	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: 30 * time.Second})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			count, err := s.storage.PurgeOlderThan(ctx, s.age)
			if err != nil {
				logger.Warnw("retention sweep failed", "error", err)
				continue
			}
			if count > 0 {
				logger.Infow("expired audio purged", "count", count)
			}
		}
	}
}
