package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/queue"
	"github.com/maraichr/coursesync/internal/store/postgres"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSubmitter struct {
	mu   sync.Mutex
	msgs []queue.SyncMessage
	fail map[string]bool
}

func (f *fakeSubmitter) Submit(_ context.Context, msg queue.SyncMessage) (postgres.SyncJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[msg.CourseDir] {
		return postgres.SyncJob{}, errors.New("queue down")
	}
	f.msgs = append(f.msgs, msg)
	return postgres.SyncJob{ID: uuid.New()}, nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func TestScheduler_Tick(t *testing.T) {
	sub := &fakeSubmitter{fail: map[string]bool{"/courses/b": true}}
	s := New(sub, []string{"/courses/a", "/courses/b", "/courses/c"}, time.Hour, testLogger)

	if got := s.Tick(context.Background()); got != 2 {
		t.Errorf("queued = %d, want 2", got)
	}
	var dirs []string
	for _, m := range sub.msgs {
		if m.Kind != queue.KindCreate || m.Trigger != queue.TriggerSchedule || m.Source != queue.SourceLocal {
			t.Errorf("message = %+v", m)
		}
		dirs = append(dirs, m.CourseDir)
	}
	if want := []string{"/courses/a", "/courses/c"}; !reflect.DeepEqual(dirs, want) {
		t.Errorf("dirs = %v, want %v", dirs, want)
	}
}

func TestScheduler_Run(t *testing.T) {
	sub := &fakeSubmitter{}
	s := New(sub, []string{"/courses/a"}, 10*time.Millisecond, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for sub.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if sub.count() < 3 {
		t.Errorf("expected at least 3 rounds, got %d", sub.count())
	}
}
