package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maraichr/coursesync/pkg/apierr"
)

type SyncJobHandler struct {
	logger  *slog.Logger
	jobs    JobStore
	courses CourseStore
}

func NewSyncJobHandler(logger *slog.Logger, jobs JobStore, courses CourseStore) *SyncJobHandler {
	return &SyncJobHandler{logger: logger, jobs: jobs, courses: courses}
}

func (h *SyncJobHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeAPIError(w, h.logger, apierr.InvalidJobID())
		return
	}

	job, err := h.jobs.GetSyncJob(r.Context(), jobID)
	if err != nil {
		if apierr.IsNotFound(err) {
			writeAPIError(w, h.logger, apierr.SyncJobNotFound())
		} else {
			writeAPIError(w, h.logger, apierr.InternalError(err))
		}
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// List handles GET /api/v1/courses/{courseID}/sync-jobs, newest first.
func (h *SyncJobHandler) List(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeAPIError(w, h.logger, apierr.InvalidCourseID())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if _, ok := getCourseOr404(r.Context(), w, h.logger, h.courses, courseID); !ok {
		return
	}

	jobs, err := h.jobs.ListSyncJobsByCourse(r.Context(), courseID, int32(limit))
	if err != nil {
		writeAPIError(w, h.logger, apierr.SyncJobListFailed(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sync_jobs": jobs,
		"total":     len(jobs),
	})
}
