// Package worker runs queued sync jobs: it materializes the course directory
// from the job's source and hands it to the sync service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/connectors"
	"github.com/maraichr/coursesync/internal/queue"
	"github.com/maraichr/coursesync/internal/store/postgres"
	"github.com/maraichr/coursesync/internal/syncer"
)

// Job statuses written to sync_jobs.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Syncer is the subset of syncer.Service a job needs.
type Syncer interface {
	SyncDiskToStore(ctx context.Context, courseDir string, courseID uuid.UUID) error
	SyncOrCreate(ctx context.Context, courseDir string) (uuid.UUID, error)
	SyncSingleQuestion(ctx context.Context, courseDir, qid string) error
}

type JobStore interface {
	UpdateSyncJobStatus(ctx context.Context, arg postgres.UpdateSyncJobStatusParams) error
}

type GitFetcher interface {
	Fetch(ctx context.Context, repoURL, destDir string) (*connectors.DeltaResult, error)
}

type ArchiveExtractor interface {
	Extract(ctx context.Context, objectName, destDir string) error
}

type PrefixSyncer interface {
	Sync(ctx context.Context, prefix, destDir string) error
}

// Deps wires a Handler. The connectors are optional; a job whose source has
// no connector fails.
type Deps struct {
	Syncer Syncer
	Jobs   JobStore
	Git    GitFetcher
	Upload ArchiveExtractor
	S3     PrefixSyncer
	Logger *slog.Logger
}

type Handler struct {
	syncer Syncer
	jobs   JobStore
	git    GitFetcher
	upload ArchiveExtractor
	s3     PrefixSyncer
	logger *slog.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		syncer: d.Syncer,
		jobs:   d.Jobs,
		git:    d.Git,
		upload: d.Upload,
		s3:     d.S3,
		logger: d.Logger,
	}
}

// Handle runs one job to a terminal status. Sync failures are recorded on the
// job and acknowledged; only a failure to record status is returned, which
// leaves the message pending for redelivery.
func (h *Handler) Handle(ctx context.Context, msg queue.SyncMessage) error {
	logger := h.logger.With(
		slog.String("job_id", msg.JobID.String()),
		slog.String("kind", msg.Kind),
		slog.String("source", msg.Source),
		slog.String("course_dir", msg.CourseDir))
	logger.Info("job started", slog.String("trigger", msg.Trigger))

	if err := h.jobs.UpdateSyncJobStatus(ctx, postgres.UpdateSyncJobStatusParams{
		ID:     msg.JobID,
		Status: StatusRunning,
	}); err != nil {
		return fmt.Errorf("update status to running: %w", err)
	}

	courseID, err := h.run(ctx, msg, logger)

	update := postgres.UpdateSyncJobStatusParams{ID: msg.JobID, Status: StatusCompleted}
	if courseID != uuid.Nil {
		update.CourseID = &courseID
	}
	switch {
	case errors.Is(err, syncer.ErrLockContention):
		update.Status = StatusSkipped
		errMsg := err.Error()
		update.ErrorMessage = &errMsg
		logger.Warn("job skipped", slog.String("error", errMsg))
	case err != nil:
		update.Status = StatusFailed
		errMsg := err.Error()
		update.ErrorMessage = &errMsg
		logger.Error("job failed", slog.String("error", errMsg))
	default:
		logger.Info("job completed")
	}

	if err := h.jobs.UpdateSyncJobStatus(context.WithoutCancel(ctx), update); err != nil {
		return fmt.Errorf("update status to %s: %w", update.Status, err)
	}
	return nil
}

func (h *Handler) run(ctx context.Context, msg queue.SyncMessage, logger *slog.Logger) (uuid.UUID, error) {
	delta, err := h.materialize(ctx, msg)
	if err != nil {
		return msg.CourseID, fmt.Errorf("fetch %s source: %w", msg.Source, err)
	}

	switch msg.Kind {
	case queue.KindQuestion:
		return msg.CourseID, h.syncer.SyncSingleQuestion(ctx, msg.CourseDir, msg.QID)

	case queue.KindCreate:
		return h.syncer.SyncOrCreate(ctx, msg.CourseDir)

	case queue.KindFull:
		if msg.Trigger == queue.TriggerWebhook {
			if qids, ok := connectors.ChangedQuestions(msg.CourseDir, delta); ok {
				logger.Info("push only touched questions, syncing incrementally",
					slog.Int("questions", len(qids)))
				for _, qid := range qids {
					if err := h.syncer.SyncSingleQuestion(ctx, msg.CourseDir, qid); err != nil {
						return msg.CourseID, err
					}
				}
				return msg.CourseID, nil
			}
		}
		return msg.CourseID, h.syncer.SyncDiskToStore(ctx, msg.CourseDir, msg.CourseID)
	}
	return msg.CourseID, fmt.Errorf("unknown job kind %q", msg.Kind)
}

// materialize brings msg.CourseDir up to date with the job's source. Only git
// sources produce a delta.
func (h *Handler) materialize(ctx context.Context, msg queue.SyncMessage) (*connectors.DeltaResult, error) {
	switch msg.Source {
	case queue.SourceLocal, "":
		return nil, nil
	case queue.SourceGit:
		if h.git == nil {
			return nil, errors.New("git connector not configured")
		}
		return h.git.Fetch(ctx, msg.SourceRef, msg.CourseDir)
	case queue.SourceUpload:
		if h.upload == nil {
			return nil, errors.New("upload connector not configured")
		}
		return nil, h.upload.Extract(ctx, msg.SourceRef, msg.CourseDir)
	case queue.SourceS3:
		if h.s3 == nil {
			return nil, errors.New("s3 connector not configured")
		}
		return nil, h.s3.Sync(ctx, msg.SourceRef, msg.CourseDir)
	}
	return nil, fmt.Errorf("unknown source %q", msg.Source)
}
