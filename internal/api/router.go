package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	apihandler "github.com/maraichr/coursesync/internal/api/handler"
	apimw "github.com/maraichr/coursesync/internal/api/middleware"
)

// RouterDeps holds the dependencies for the router. Producer, Queue and
// Uploads are optional: without a producer only inline syncs are served, and
// upload is only mounted with object storage configured.
type RouterDeps struct {
	DB            apihandler.Pinger
	Queue         apihandler.Pinger
	Syncer        apihandler.SyncService
	Courses       apihandler.CourseStore
	Jobs          apihandler.JobStore
	Producer      apihandler.Enqueuer
	Uploads       apihandler.ObjectUploader
	WebhookSecret string
}

func NewRouter(logger *slog.Logger, deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apimw.Logger(logger))
	r.Use(chimw.Recoverer)

	health := apihandler.NewHealthHandler(deps.DB, deps.Queue)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	r.Route("/api/v1", func(r chi.Router) {
		syncs := apihandler.NewSyncHandler(logger, deps.Syncer, deps.Courses, deps.Jobs, deps.Producer)
		jobs := apihandler.NewSyncJobHandler(logger, deps.Jobs, deps.Courses)

		r.Route("/courses", func(r chi.Router) {
			r.Post("/sync", syncs.SyncPath)
			r.Route("/{courseID}", func(r chi.Router) {
				r.Post("/sync", syncs.SyncCourse)
				r.Post("/questions/sync", syncs.SyncQuestion)
				r.Get("/sync-jobs", jobs.List)

				if deps.Uploads != nil {
					upload := apihandler.NewUploadHandler(logger, deps.Courses, deps.Uploads, deps.Jobs, deps.Producer)
					r.Post("/upload", upload.Upload)
				}
			})
		})

		r.Get("/sync-jobs/{jobID}", jobs.Get)

		if deps.WebhookSecret != "" {
			webhooks := apihandler.NewWebhookHandler(logger, deps.WebhookSecret, deps.Courses, deps.Jobs, deps.Producer)
			r.Post("/webhooks/git/{courseID}", webhooks.GitPush)
		}
	})

	return r
}
