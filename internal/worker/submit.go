package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/queue"
	"github.com/maraichr/coursesync/internal/store/postgres"
)

// ErrQueueUnavailable is returned by Submit when no producer is configured.
var ErrQueueUnavailable = errors.New("sync job queue not configured")

// EnqueueError reports a job that was recorded but could not be queued. The
// job has been marked failed.
type EnqueueError struct {
	JobID uuid.UUID
	Err   error
}

func (e *EnqueueError) Error() string {
	return fmt.Sprintf("enqueue sync job %s: %v", e.JobID, e.Err)
}

func (e *EnqueueError) Unwrap() error { return e.Err }

type JobRecorder interface {
	CreateSyncJob(ctx context.Context, arg postgres.CreateSyncJobParams) (postgres.SyncJob, error)
	UpdateSyncJobStatus(ctx context.Context, arg postgres.UpdateSyncJobStatusParams) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, msg queue.SyncMessage) (string, error)
}

// Submitter records a pending sync job and hands it to the worker queue.
type Submitter struct {
	jobs     JobRecorder
	producer Enqueuer
	logger   *slog.Logger
}

func NewSubmitter(jobs JobRecorder, producer Enqueuer, logger *slog.Logger) *Submitter {
	return &Submitter{jobs: jobs, producer: producer, logger: logger}
}

func (s *Submitter) Available() bool {
	return s.producer != nil && s.jobs != nil
}

// Submit creates the sync_jobs row for msg and enqueues msg with its id.
func (s *Submitter) Submit(ctx context.Context, msg queue.SyncMessage) (postgres.SyncJob, error) {
	if !s.Available() {
		return postgres.SyncJob{}, ErrQueueUnavailable
	}

	params := postgres.CreateSyncJobParams{
		CourseDir: msg.CourseDir,
		Kind:      msg.Kind,
		Source:    msg.Source,
		Trigger:   msg.Trigger,
	}
	if msg.CourseID != uuid.Nil {
		params.CourseID = &msg.CourseID
	}
	if msg.QID != "" {
		params.QID = &msg.QID
	}
	job, err := s.jobs.CreateSyncJob(ctx, params)
	if err != nil {
		return postgres.SyncJob{}, fmt.Errorf("create sync job: %w", err)
	}

	msg.JobID = job.ID
	if _, err := s.producer.Enqueue(ctx, msg); err != nil {
		errMsg := err.Error()
		if uerr := s.jobs.UpdateSyncJobStatus(ctx, postgres.UpdateSyncJobStatusParams{
			ID:           job.ID,
			Status:       StatusFailed,
			ErrorMessage: &errMsg,
		}); uerr != nil {
			s.logger.Error("mark unqueued job failed", slog.String("job_id", job.ID.String()), slog.String("error", uerr.Error()))
		}
		return job, &EnqueueError{JobID: job.ID, Err: err}
	}

	s.logger.Info("sync job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", msg.Kind),
		slog.String("source", msg.Source),
		slog.String("course_dir", msg.CourseDir))
	return job, nil
}
