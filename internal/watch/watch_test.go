package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSyncer struct {
	calls chan string
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{calls: make(chan string, 64)}
}

func (f *fakeSyncer) SyncOrCreate(_ context.Context, _ string) (uuid.UUID, error) {
	f.calls <- "full"
	return uuid.New(), nil
}

func (f *fakeSyncer) SyncSingleQuestion(_ context.Context, _, qid string) error {
	f.calls <- "question:" + qid
	return nil
}

func (f *fakeSyncer) drain() []string {
	var out []string
	for {
		select {
		case c := <-f.calls:
			out = append(out, c)
		default:
			sort.Strings(out)
			return out
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func courseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "infoCourse.json"), "{}")
	writeFile(t, filepath.Join(dir, "questions", "q1", "info.json"), "{}")
	writeFile(t, filepath.Join(dir, "questions", "q2", "info.json"), "{}")
	return dir
}

func TestIgnored(t *testing.T) {
	dir := "/courses/c1"
	tests := []struct {
		path string
		want bool
	}{
		{"/courses/c1/questions/q1/server.py", false},
		{"/courses/c1/infoCourse.json", false},
		{"/courses/c1/.git/index", true},
		{"/courses/c1/questions/q1/.server.py.swp", true},
		{"/courses/c1/questions/q1/server.py~", true},
		{"/courses/c1/questions/q1/4913", true},
		{"/elsewhere/file", true},
	}
	for _, tt := range tests {
		if got := ignored(dir, tt.path); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestBatchDelta(t *testing.T) {
	dir := "/courses/c1"
	delta := batchDelta(dir, map[string]bool{
		"/courses/c1/questions/q2/server.py": false,
		"/courses/c1/questions/q1/old.html":  true,
		"/courses/c1/infoCourse.json":        false,
	})
	if !delta.IsIncremental {
		t.Error("batch delta should be incremental")
	}
	if want := []string{"infoCourse.json", "questions/q2/server.py"}; !reflect.DeepEqual(delta.ChangedFiles, want) {
		t.Errorf("changed = %v, want %v", delta.ChangedFiles, want)
	}
	if want := []string{"questions/q1/old.html"}; !reflect.DeepEqual(delta.DeletedFiles, want) {
		t.Errorf("deleted = %v, want %v", delta.DeletedFiles, want)
	}
}

func TestFlush(t *testing.T) {
	dir := courseDir(t)
	tests := []struct {
		name    string
		pending map[string]bool
		want    []string
	}{
		{"question edits", map[string]bool{
			filepath.Join(dir, "questions", "q1", "question.html"): false,
			filepath.Join(dir, "questions", "q2", "server.py"):     false,
			filepath.Join(dir, "questions", "q2", "tests.py"):      true,
		}, []string{"question:q1", "question:q2"}},
		{"course file", map[string]bool{
			filepath.Join(dir, "questions", "q1", "question.html"): false,
			filepath.Join(dir, "infoCourse.json"):                  false,
		}, []string{"full"}},
		{"question removed", map[string]bool{
			filepath.Join(dir, "questions", "q3", "info.json"): true,
		}, []string{"full"}},
		{"empty", map[string]bool{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSyncer()
			New(dir, s, time.Millisecond, testLogger).flush(context.Background(), tt.pending)
			if got := s.drain(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("calls = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_SyncsEditedQuestion(t *testing.T) {
	dir := courseDir(t)
	s := newFakeSyncer()
	w := New(dir, s, 20*time.Millisecond, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	// Keep editing until the watcher is up and a batch has flushed.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case call := <-s.calls:
			if call != "question:q1" {
				t.Fatalf("call = %q, want question:q1", call)
			}
			return
		case <-tick.C:
			writeFile(t, filepath.Join(dir, "questions", "q1", "server.py"), time.Now().String())
		case <-deadline:
			t.Fatal("timed out waiting for question sync")
		}
	}
}
