package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/ensemble/internal/metrics"
	"github.com/yukikurage/ensemble/internal/repository"
)

// Archiver periodically moves one-off tasks that have been DONE for longer
// than the retention window to ARCHIVED.
type Archiver struct {
	taskRepo repository.TaskRepository
	after    time.Duration
	metrics  *metrics.Metrics
	log      *logrus.Logger
	now      Clock
	cron     *cron.Cron
}

// NewArchiver creates an Archiver. m may be nil.
func NewArchiver(taskRepo repository.TaskRepository, after time.Duration, m *metrics.Metrics, log *logrus.Logger) *Archiver {
	return &Archiver{
		taskRepo: taskRepo,
		after:    after,
		metrics:  m,
		log:      log,
		now:      utcNow,
	}
}

// WithClock replaces the wall clock, for tests.
func (a *Archiver) WithClock(now Clock) *Archiver {
	a.now = now
	return a
}

// RunOnce archives every eligible task and returns how many were moved.
func (a *Archiver) RunOnce() (int64, error) {
	cutoff := a.now().Add(-a.after)

	archived, err := a.taskRepo.ArchiveCompleted(cutoff)
	if err != nil {
		if a.metrics != nil {
			a.metrics.ArchiveRunFailures.Inc()
		}
		a.log.WithError(err).Error("task archival failed")
		return 0, fmt.Errorf("failed to archive tasks: %w", err)
	}

	if a.metrics != nil {
		a.metrics.TasksArchived.Add(float64(archived))
	}
	a.log.WithFields(logrus.Fields{
		"archived": archived,
		"cutoff":   cutoff.Format(time.RFC3339),
	}).Info("task archival finished")

	return archived, nil
}

// Start schedules RunOnce on a cron spec such as "@daily" or "0 3 * * *".
func (a *Archiver) Start(spec string) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, func() {
		_, _ = a.RunOnce()
	}); err != nil {
		return fmt.Errorf("invalid archive schedule %q: %w", spec, err)
	}
	a.cron = c
	c.Start()

	a.log.WithField("schedule", spec).Info("task archiver started")
	return nil
}

// Stop halts the schedule and waits for a running archival to finish or ctx to expire.
func (a *Archiver) Stop(ctx context.Context) {
	if a.cron == nil {
		return
	}
	select {
	case <-a.cron.Stop().Done():
	case <-ctx.Done():
	}
}
