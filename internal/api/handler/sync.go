package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/queue"
	"github.com/maraichr/coursesync/pkg/apierr"
)

type SyncHandler struct {
	logger  *slog.Logger
	syncer  SyncService
	courses CourseStore
	jobs    jobSubmitter
}

func NewSyncHandler(logger *slog.Logger, svc SyncService, courses CourseStore, jobs JobStore, producer Enqueuer) *SyncHandler {
	return &SyncHandler{
		logger:  logger,
		syncer:  svc,
		courses: courses,
		jobs:    newJobSubmitter(jobs, producer, logger),
	}
}

type syncPathRequest struct {
	Path   string `json:"path"`
	Async  bool   `json:"async"`
	GitURL string `json:"git_url"`
}

// SyncPath handles POST /api/v1/courses/sync. A course record is created for
// path on first use. A git_url always runs in the background since the
// checkout happens on the worker.
func (h *SyncHandler) SyncPath(w http.ResponseWriter, r *http.Request) {
	var req syncPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidRequestBody())
		return
	}
	if e := validateCoursePath(req.Path); e != nil {
		writeAPIError(w, h.logger, e)
		return
	}

	if req.Async || req.GitURL != "" {
		msg := queue.SyncMessage{
			Kind:      queue.KindCreate,
			CourseDir: req.Path,
			Source:    queue.SourceLocal,
			Trigger:   queue.TriggerManual,
		}
		if req.GitURL != "" {
			msg.Source = queue.SourceGit
			msg.SourceRef = req.GitURL
		}
		h.submit(w, r, msg)
		return
	}

	courseID, err := h.syncer.SyncOrCreate(r.Context(), req.Path)
	if err != nil {
		if courseID == uuid.Nil {
			writeAPIError(w, h.logger, apierr.CourseCreateFailed(err))
		} else {
			writeSyncError(w, h.logger, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"course_id": courseID,
		"status":    "synced",
	})
}

type syncCourseRequest struct {
	Async bool `json:"async"`
}

// SyncCourse handles POST /api/v1/courses/{courseID}/sync. The body is optional.
func (h *SyncHandler) SyncCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeAPIError(w, h.logger, apierr.InvalidCourseID())
		return
	}
	var req syncCourseRequest
	if err := decodeOptional(r, &req); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidRequestBody())
		return
	}

	course, ok := getCourseOr404(r.Context(), w, h.logger, h.courses, courseID)
	if !ok {
		return
	}

	if req.Async {
		h.submit(w, r, queue.SyncMessage{
			Kind:      queue.KindFull,
			CourseDir: course.Path,
			CourseID:  course.ID,
			Source:    queue.SourceLocal,
			Trigger:   queue.TriggerManual,
		})
		return
	}

	if err := h.syncer.SyncDiskToStore(r.Context(), course.Path, course.ID); err != nil {
		writeSyncError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"course_id": course.ID,
		"status":    "synced",
	})
}

type syncQuestionRequest struct {
	QID   string `json:"qid"`
	Async bool   `json:"async"`
}

// SyncQuestion handles POST /api/v1/courses/{courseID}/questions/sync. A
// question whose identity changed is left for the next full sync and still
// reports success.
func (h *SyncHandler) SyncQuestion(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeAPIError(w, h.logger, apierr.InvalidCourseID())
		return
	}
	var req syncQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidRequestBody())
		return
	}
	if e := validateQID(req.QID); e != nil {
		writeAPIError(w, h.logger, e)
		return
	}

	course, ok := getCourseOr404(r.Context(), w, h.logger, h.courses, courseID)
	if !ok {
		return
	}

	if req.Async {
		h.submit(w, r, queue.SyncMessage{
			Kind:      queue.KindQuestion,
			CourseDir: course.Path,
			CourseID:  course.ID,
			QID:       req.QID,
			Source:    queue.SourceLocal,
			Trigger:   queue.TriggerManual,
		})
		return
	}

	if err := h.syncer.SyncSingleQuestion(r.Context(), course.Path, req.QID); err != nil {
		writeSyncError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"course_id": course.ID,
		"qid":       req.QID,
		"status":    "synced",
	})
}

func (h *SyncHandler) submit(w http.ResponseWriter, r *http.Request, msg queue.SyncMessage) {
	job, e := h.jobs.submit(r.Context(), msg)
	if e != nil {
		writeAPIError(w, h.logger, e)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"sync_job": job})
}
