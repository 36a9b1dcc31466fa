package elements

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/syncer"
)

func writeElement(t *testing.T, dir, name, info string) {
	t.Helper()
	p := filepath.Join(dir, "elements", name)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	if info == "" {
		return
	}
	if err := os.WriteFile(filepath.Join(p, "info.json"), []byte(info), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeElement(t, dir, "pl-vector-input", `{"controller": "pl-vector-input.py"}`)
	writeElement(t, dir, "pl-graph", `{"controller": "pl-graph.py", "dependencies": {"elementScripts": ["graph.js"]}}`)
	writeElement(t, dir, "scratch", "")

	els, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(els) != 2 {
		t.Fatalf("elements = %d, want 2", len(els))
	}
	if els["pl-graph"].Controller != "pl-graph.py" {
		t.Errorf("controller = %q", els["pl-graph"].Controller)
	}
}

func TestScan_NoElementsDir(t *testing.T) {
	els, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(els) != 0 {
		t.Errorf("expected no elements, got %v", els)
	}
}

func TestScan_MalformedInfo(t *testing.T) {
	dir := t.TempDir()
	writeElement(t, dir, "broken", `{"controller": `)
	if _, err := Scan(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestReloader_Reload(t *testing.T) {
	dir := t.TempDir()
	writeElement(t, dir, "pl-b", `{"controller": "b.py"}`)
	writeElement(t, dir, "pl-a", `{"controller": "a.py"}`)

	reg := NewRegistry()
	r := NewReloader(reg, nil)
	courseID := uuid.New()
	rc := &syncer.RunContext{
		CourseDir: dir,
		CourseID:  courseID,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := r.Reload(context.Background(), rc); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := reg.Names(courseID); !reflect.DeepEqual(got, []string{"pl-a", "pl-b"}) {
		t.Errorf("Names() = %v", got)
	}
	if _, ok := reg.Get(courseID, "pl-a"); !ok {
		t.Error("pl-a should be registered")
	}
	if len(reg.Names(uuid.New())) != 0 {
		t.Error("other courses should be empty")
	}

	// A second reload replaces the index.
	if err := os.RemoveAll(filepath.Join(dir, "elements", "pl-b")); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(context.Background(), rc); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := reg.Names(courseID); !reflect.DeepEqual(got, []string{"pl-a"}) {
		t.Errorf("Names() after removal = %v", got)
	}
}
