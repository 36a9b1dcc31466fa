package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/maraichr/coursesync/internal/syncer"
	"github.com/maraichr/coursesync/pkg/apierr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeAPIError writes a structured error response and logs 5xx errors.
func writeAPIError(w http.ResponseWriter, logger *slog.Logger, e *apierr.Error) {
	if e.Status() >= 500 && logger != nil {
		logger.Error(e.Message(), slog.String("code", string(e.Code())), slog.String("error", e.Error()))
	}
	writeJSON(w, e.Status(), e.Response())
}

// writeSyncError maps the sync error taxonomy onto API errors.
func writeSyncError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var loadErr *syncer.LoadError
	var stageErr *syncer.StageError
	switch {
	case errors.Is(err, syncer.ErrLockContention):
		writeAPIError(w, logger, apierr.SyncInProgress())
	case errors.As(err, &loadErr):
		writeAPIError(w, logger, apierr.CourseLoadFailed(err))
	case errors.As(err, &stageErr):
		writeAPIError(w, logger, apierr.SyncFailed(err).WithDetail("stage", stageErr.Stage))
	default:
		writeAPIError(w, logger, apierr.SyncFailed(err))
	}
}

// decodeOptional decodes a JSON body into v, accepting an empty body.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
