package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/queue"
	"github.com/maraichr/coursesync/pkg/apierr"
)

type WebhookHandler struct {
	logger  *slog.Logger
	secret  string
	courses CourseStore
	jobs    jobSubmitter
}

func NewWebhookHandler(logger *slog.Logger, secret string, courses CourseStore, jobs JobStore, producer Enqueuer) *WebhookHandler {
	return &WebhookHandler{
		logger:  logger,
		secret:  secret,
		courses: courses,
		jobs:    newJobSubmitter(jobs, producer, logger),
	}
}

// pushPayload covers the clone URL fields of GitLab and GitHub push events.
type pushPayload struct {
	Project struct {
		GitHTTPURL string `json:"git_http_url"`
	} `json:"project"`
	Repository struct {
		CloneURL   string `json:"clone_url"`
		GitHTTPURL string `json:"git_http_url"`
	} `json:"repository"`
}

func (p pushPayload) repoURL() string {
	for _, u := range []string{p.Project.GitHTTPURL, p.Repository.CloneURL, p.Repository.GitHTTPURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

// GitPush handles POST /api/v1/webhooks/git/{courseID}
func (h *WebhookHandler) GitPush(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeAPIError(w, h.logger, apierr.InvalidCourseID())
		return
	}

	token := r.Header.Get("X-Gitlab-Token")
	if token == "" {
		token = r.Header.Get("X-Webhook-Token")
	}
	if token == "" {
		writeAPIError(w, h.logger, apierr.MissingAuthToken())
		return
	}
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		writeAPIError(w, h.logger, apierr.InvalidAuthToken())
		return
	}

	var payload pushPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidRequestBody())
		return
	}
	repoURL := payload.repoURL()
	if repoURL == "" {
		writeAPIError(w, h.logger, apierr.RepoURLRequired())
		return
	}

	course, ok := getCourseOr404(r.Context(), w, h.logger, h.courses, courseID)
	if !ok {
		return
	}

	job, e := h.jobs.submit(r.Context(), queue.SyncMessage{
		Kind:      queue.KindFull,
		CourseDir: course.Path,
		CourseID:  course.ID,
		Source:    queue.SourceGit,
		SourceRef: repoURL,
		Trigger:   queue.TriggerWebhook,
	})
	if e != nil {
		writeAPIError(w, h.logger, e)
		return
	}

	h.logger.Info("webhook received",
		slog.String("course_id", courseID.String()),
		slog.String("sync_job_id", job.ID.String()))

	writeJSON(w, http.StatusAccepted, map[string]any{"sync_job": job})
}
