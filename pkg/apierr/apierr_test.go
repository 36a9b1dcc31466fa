package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestError_WrapAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	e := SyncFailed(cause).WithDetail("stage", "questions")

	if !errors.Is(e, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if e.Status() != http.StatusInternalServerError {
		t.Errorf("status = %d", e.Status())
	}
	resp := e.Response()
	if resp.Error.Code != CodeSyncFailed || resp.Error.Details["stage"] != "questions" {
		t.Errorf("response = %+v", resp)
	}
	if got, want := e.Error(), "SYNC_FAILED: Sync failed: connection reset"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCatalogStatuses(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{SyncInProgress(), http.StatusConflict},
		{CourseLoadFailed(errors.New("bad json")), http.StatusUnprocessableEntity},
		{CourseNotFound(), http.StatusNotFound},
		{QueueUnavailable(), http.StatusServiceUnavailable},
		{InvalidAuthToken(), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		if tt.err.Status() != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.err.Code(), tt.err.Status(), tt.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("get course: %w", pgx.ErrNoRows)) {
		t.Error("wrapped ErrNoRows should be not found")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("unrelated error should not be not found")
	}
}
