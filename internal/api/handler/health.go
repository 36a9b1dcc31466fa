package handler

import (
	"context"
	"net/http"

	"github.com/maraichr/coursesync/pkg/apierr"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	db    Pinger
	queue Pinger
}

// NewHealthHandler builds the health endpoints. queue may be nil when no
// Valkey is configured.
func NewHealthHandler(db, queue Pinger) *HealthHandler {
	return &HealthHandler{db: db, queue: queue}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			writeAPIError(w, nil, apierr.DatabaseNotReady())
			return
		}
	}
	if h.queue != nil {
		if err := h.queue.Ping(r.Context()); err != nil {
			writeAPIError(w, nil, apierr.QueueUnavailable())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
