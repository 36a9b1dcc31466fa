package connectors

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "course.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractArchive(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"flat", map[string]string{
			"infoCourse.json":        "{}",
			"questions/q1/info.json": "{}",
		}},
		{"wrapped", map[string]string{
			"my-course/infoCourse.json":        "{}",
			"my-course/questions/q1/info.json": "{}",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := writeZip(t, tt.files)
			dest := filepath.Join(t.TempDir(), "course")
			// Stale content from an earlier upload is replaced.
			touch(t, filepath.Join(dest, "questions", "stale", "info.json"))

			if err := ExtractArchive(archive, dest); err != nil {
				t.Fatalf("ExtractArchive: %v", err)
			}
			for _, p := range []string{"infoCourse.json", "questions/q1/info.json"} {
				if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(p))); err != nil {
					t.Errorf("missing %s: %v", p, err)
				}
			}
			if _, err := os.Stat(filepath.Join(dest, "questions", "stale")); !os.IsNotExist(err) {
				t.Error("stale content should be gone")
			}
		})
	}
}

func TestExtractArchive_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"zip slip", map[string]string{"infoCourse.json": "{}", "../escape.txt": "x"}},
		{"no course info", map[string]string{"questions/q1/info.json": "{}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := writeZip(t, tt.files)
			dest := filepath.Join(t.TempDir(), "course")
			if err := ExtractArchive(archive, dest); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLocalObjectPath(t *testing.T) {
	dest := t.TempDir()
	got, err := localObjectPath(dest, "courses/cs101/", "courses/cs101/questions/q1/info.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dest, "questions", "q1", "info.json"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
	if _, err := localObjectPath(dest, "courses/cs101/", "courses/cs101/../../etc/passwd"); err == nil {
		t.Error("expected escape to be rejected")
	}
}
