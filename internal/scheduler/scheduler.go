// Package scheduler periodically enqueues full syncs so that questions whose
// incremental sync was declined are eventually reconciled.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/maraichr/coursesync/internal/queue"
	"github.com/maraichr/coursesync/internal/store/postgres"
)

type Submitter interface {
	Submit(ctx context.Context, msg queue.SyncMessage) (postgres.SyncJob, error)
}

type Scheduler struct {
	submitter Submitter
	dirs      []string
	interval  time.Duration
	logger    *slog.Logger
}

func New(submitter Submitter, dirs []string, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{submitter: submitter, dirs: dirs, interval: interval, logger: logger}
}

// Run enqueues a round immediately and then once per interval until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick enqueues one sync-or-create job per configured directory and returns
// how many were queued. A failure for one directory does not stop the rest.
func (s *Scheduler) Tick(ctx context.Context) int {
	queued := 0
	for _, dir := range s.dirs {
		job, err := s.submitter.Submit(ctx, queue.SyncMessage{
			Kind:      queue.KindCreate,
			CourseDir: dir,
			Source:    queue.SourceLocal,
			Trigger:   queue.TriggerSchedule,
		})
		if err != nil {
			s.logger.Error("schedule sync failed",
				slog.String("course_dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		s.logger.Debug("scheduled sync",
			slog.String("course_dir", dir),
			slog.String("job_id", job.ID.String()))
		queued++
	}
	s.logger.Info("scheduled course syncs", slog.Int("queued", queued), slog.Int("courses", len(s.dirs)))
	return queued
}
