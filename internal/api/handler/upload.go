package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/queue"
	minioclient "github.com/maraichr/coursesync/internal/store/minio"
	"github.com/maraichr/coursesync/pkg/apierr"
)

const maxUploadSize = 100 << 20

type UploadHandler struct {
	logger  *slog.Logger
	courses CourseStore
	objects ObjectUploader
	jobs    jobSubmitter
}

func NewUploadHandler(logger *slog.Logger, courses CourseStore, objects ObjectUploader, jobs JobStore, producer Enqueuer) *UploadHandler {
	return &UploadHandler{
		logger:  logger,
		courses: courses,
		objects: objects,
		jobs:    newJobSubmitter(jobs, producer, logger),
	}
}

// Upload handles POST /api/v1/courses/{courseID}/upload. The zip archive is
// stored in object storage and a worker extracts it over the course directory.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeAPIError(w, h.logger, apierr.InvalidCourseID())
		return
	}
	if !h.jobs.available() {
		writeAPIError(w, h.logger, apierr.QueueUnavailable())
		return
	}

	course, ok := getCourseOr404(r.Context(), w, h.logger, h.courses, courseID)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, h.logger, apierr.FileRequired())
		return
	}
	defer file.Close()

	objectName := minioclient.ArchiveObjectName(course.ID, uuid.New())
	if err := h.objects.UploadFile(r.Context(), objectName, file, header.Size); err != nil {
		writeAPIError(w, h.logger, apierr.UploadFailed(err))
		return
	}

	job, e := h.jobs.submit(r.Context(), queue.SyncMessage{
		Kind:      queue.KindFull,
		CourseDir: course.Path,
		CourseID:  course.ID,
		Source:    queue.SourceUpload,
		SourceRef: objectName,
		Trigger:   queue.TriggerUpload,
	})
	if e != nil {
		writeAPIError(w, h.logger, e)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"sync_job": job,
		"object":   objectName,
	})
}
