package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/queue"
	"github.com/maraichr/coursesync/internal/store/postgres"
	"github.com/maraichr/coursesync/internal/worker"
	"github.com/maraichr/coursesync/pkg/apierr"
)

// SyncService runs syncs inline for synchronous requests.
type SyncService interface {
	SyncDiskToStore(ctx context.Context, courseDir string, courseID uuid.UUID) error
	SyncOrCreate(ctx context.Context, courseDir string) (uuid.UUID, error)
	SyncSingleQuestion(ctx context.Context, courseDir, qid string) error
}

type CourseStore interface {
	GetCourse(ctx context.Context, id uuid.UUID) (postgres.Course, error)
}

type JobStore interface {
	CreateSyncJob(ctx context.Context, arg postgres.CreateSyncJobParams) (postgres.SyncJob, error)
	GetSyncJob(ctx context.Context, id uuid.UUID) (postgres.SyncJob, error)
	ListSyncJobsByCourse(ctx context.Context, courseID uuid.UUID, limit int32) ([]postgres.SyncJob, error)
	UpdateSyncJobStatus(ctx context.Context, arg postgres.UpdateSyncJobStatusParams) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, msg queue.SyncMessage) (string, error)
}

type ObjectUploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64) error
}

// jobSubmitter maps worker.Submitter failures onto API errors.
type jobSubmitter struct {
	s *worker.Submitter
}

func newJobSubmitter(jobs JobStore, producer Enqueuer, logger *slog.Logger) jobSubmitter {
	return jobSubmitter{s: worker.NewSubmitter(jobs, producer, logger)}
}

func (j jobSubmitter) available() bool {
	return j.s.Available()
}

func (j jobSubmitter) submit(ctx context.Context, msg queue.SyncMessage) (postgres.SyncJob, *apierr.Error) {
	job, err := j.s.Submit(ctx, msg)
	if err != nil {
		var enqErr *worker.EnqueueError
		switch {
		case errors.Is(err, worker.ErrQueueUnavailable):
			return job, apierr.QueueUnavailable()
		case errors.As(err, &enqErr):
			return job, apierr.EnqueueFailed(err)
		default:
			return job, apierr.SyncJobCreateFailed(err)
		}
	}
	return job, nil
}

// getCourseOr404 loads a course or writes the error response.
func getCourseOr404(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, courses CourseStore, id uuid.UUID) (postgres.Course, bool) {
	course, err := courses.GetCourse(ctx, id)
	if err != nil {
		if apierr.IsNotFound(err) {
			writeAPIError(w, logger, apierr.CourseNotFound())
		} else {
			writeAPIError(w, logger, apierr.InternalError(err))
		}
		return postgres.Course{}, false
	}
	return course, true
}
