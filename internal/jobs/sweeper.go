package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dubber/internal/logging"
)

// Deleter removes job rows.
type Deleter interface {
	Delete(ctx context.Context, id int64) error
}

// SweepStore is the persistence surface retention needs.
type SweepStore interface {
	Deleter
	CreatedBefore(ctx context.Context, cutoff time.Time) ([]*Job, error)
}

// MediaRemover deletes stored media by name.
type MediaRemover interface {
	Delete(name string) error
}

// SweepResult reports one retention pass.
type SweepResult struct {
	DeletedCount  int `json:"deleted_count"`
	RetentionDays int `json:"retention_days"`
}

// Sweeper deletes jobs, and their media, older than the retention window.
type Sweeper struct {
	store         SweepStore
	media         MediaRemover
	retentionDays int
	now           func() time.Time
	logger        *slog.Logger
}

// NewSweeper constructs a sweeper with the given retention window in days.
func NewSweeper(store SweepStore, media MediaRemover, retentionDays int, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{
		store:         store,
		media:         media,
		retentionDays: retentionDays,
		now:           time.Now,
		logger:        logging.NewComponentLogger(logger, "retention"),
	}
}

// WithClock overrides the time source (used by tests).
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	if now != nil {
		s.now = now
	}
	return s
}

// Sweep deletes every job created at or before now minus the retention window.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	result := SweepResult{RetentionDays: s.retentionDays}
	cutoff := s.now().Add(-time.Duration(s.retentionDays) * 24 * time.Hour)

	expired, err := s.store.CreatedBefore(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("list expired jobs: %w", err)
	}

	for _, job := range expired {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := removeMedia(s.media, job); err != nil {
			logging.WarnWithContext(s.logger, "expired media removal failed", "retention_media_failed",
				logging.Int64(logging.FieldJobID, job.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check media directory permissions"),
				logging.String(logging.FieldImpact, "job kept until the next sweep"),
			)
			continue
		}
		if err := s.store.Delete(ctx, job.ID); err != nil {
			return result, err
		}
		result.DeletedCount++
	}

	s.logger.Info("retention sweep completed",
		logging.Int("deleted_count", result.DeletedCount),
		logging.Int("retention_days", result.RetentionDays),
		logging.String(logging.FieldEventType, "retention_sweep"),
	)
	return result, nil
}

func removeMedia(media MediaRemover, job *Job) error {
	if err := media.Delete(job.SourceMedia); err != nil {
		return err
	}
	return media.Delete(job.ResultMedia)
}

// DeleteJob removes one job and its stored media immediately.
func DeleteJob(ctx context.Context, store Deleter, media MediaRemover, job *Job) error {
	if job == nil {
		return ErrJobNotFound
	}
	if err := removeMedia(media, job); err != nil {
		return err
	}
	return store.Delete(ctx, job.ID)
}
