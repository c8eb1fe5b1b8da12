// Package janitor periodically deletes uploaded photos that no product
// references, e.g. files left behind by a crash between write and insert.
package janitor

import (
	"context"
	"fmt"
	"time"

	"bazar/internal/upload"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = 5 * time.Minute

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// PhotoLister returns the photo paths referenced by products.
type PhotoLister interface {
	ListPhotos(ctx context.Context) ([]string, error)
}

// FileStore lists and removes stored uploads.
type FileStore interface {
	List() ([]upload.Entry, error)
	Remove(publicPath string) error
}

// Janitor removes orphaned uploads older than a grace period.
type Janitor struct {
	photos PhotoLister
	files  FileStore
	grace  time.Duration
	logger *zap.Logger
	now    func() time.Time
	sched  *cron.Cron
}

// New creates a Janitor. Files younger than grace are never touched, so a
// product still being created keeps its photo.
func New(photos PhotoLister, files FileStore, grace time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		photos: photos,
		files:  files,
		grace:  grace,
		logger: logger,
		now:    time.Now,
	}
}

// Sweep deletes every unreferenced upload older than the grace period and
// returns how many files were removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	entries, err := j.files.List()
	if err != nil {
		return 0, fmt.Errorf("failed to list uploads: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	referenced, err := j.photos.ListPhotos(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list product photos: %w", err)
	}
	inUse := make(map[string]struct{}, len(referenced))
	for _, p := range referenced {
		inUse[p] = struct{}{}
	}

	cutoff := j.now().Add(-j.grace)
	removed := 0
	for _, e := range entries {
		if _, ok := inUse[e.Path]; ok || e.ModTime.After(cutoff) {
			continue
		}
		if err := j.files.Remove(e.Path); err != nil {
			j.logger.Warn("Failed to remove orphaned upload", zap.String("photo", e.Path), zap.Error(err))
			continue
		}
		removed++
	}

	return removed, nil
}

// Start schedules Sweep with a cron expression (seconds optional,
// descriptors such as @daily accepted).
func (j *Janitor) Start(schedule string) error {
	j.sched = cron.New(cron.WithParser(cronParser))

	_, err := j.sched.AddFunc(schedule, j.run)
	if err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}

	j.sched.Start()
	j.logger.Info("Upload janitor scheduled", zap.String("schedule", schedule), zap.Duration("grace", j.grace))
	return nil
}

// Stop halts the schedule and returns a context done once a running sweep
// has finished.
func (j *Janitor) Stop() context.Context {
	if j.sched == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return j.sched.Stop()
}

func (j *Janitor) run() {
	defer func() {
		if err := recover(); err != nil {
			j.logger.Error("Upload janitor panicked", zap.Any("error", err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	removed, err := j.Sweep(ctx)
	if err != nil {
		j.logger.Error("Upload janitor failed", zap.Error(err))
		return
	}
	if removed > 0 {
		j.logger.Info("Removed orphaned uploads", zap.Int("count", removed))
	}
}
