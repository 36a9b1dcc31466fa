package course

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testCourse(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "infoCourse.json"), `{
		"uuid": "5c2a5a1e-3f0e-4b7e-9a56-6c8f0f3f1a01",
		"name": "TAM 212",
		"title": "Introductory Dynamics",
		"timezone": "America/Chicago",
		"topics": [{"name": "Vectors", "color": "blue1"}],
		"tags": [{"name": "easy", "color": "green1"}],
		"assessmentSets": [{"abbreviation": "HW", "name": "Homework", "heading": "Homeworks", "color": "green1"}]
	}`)
	writeFile(t, filepath.Join(dir, "questions", "addVectors", "info.json"),
		`{"uuid": "a0a3b7f4-1d0e-4d89-8a5b-000000000001", "title": "Add vectors", "topic": "Vectors", "tags": ["easy"], "type": "v3"}`)
	writeFile(t, filepath.Join(dir, "questions", "algebra", "quadratic", "info.json"),
		`{"uuid": "a0a3b7f4-1d0e-4d89-8a5b-000000000002", "title": "Quadratic", "topic": "Vectors", "type": "v3"}`)
	writeFile(t, filepath.Join(dir, "courseInstances", "Sp26", "infoCourseInstance.json"),
		`{"uuid": "b1b3b7f4-1d0e-4d89-8a5b-000000000001", "longName": "Spring 2026", "userRoles": {"staff@example.com": "Instructor"}}`)
	writeFile(t, filepath.Join(dir, "courseInstances", "Sp26", "assessments", "HW1", "infoAssessment.json"),
		`{"uuid": "c1b3b7f4-1d0e-4d89-8a5b-000000000001", "type": "Homework", "set": "Homework", "number": "1", "title": "Vectors",
		  "zones": [{"questions": [{"id": "addVectors", "points": 1}, {"alternatives": [{"id": "algebra/quadratic"}]}]}]}`)
	// A directory without an info file is not an instance.
	if err := os.MkdirAll(filepath.Join(dir, "courseInstances", "scratch"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestDiskLoader_LoadFullCourse(t *testing.T) {
	dir := testCourse(t)
	tree, err := NewDiskLoader().LoadFullCourse(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadFullCourse: %v", err)
	}

	if tree.CourseInfo.Name != "TAM 212" {
		t.Errorf("course name = %q", tree.CourseInfo.Name)
	}
	if len(tree.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(tree.Questions))
	}
	q, ok := tree.Questions["algebra/quadratic"]
	if !ok {
		t.Fatalf("nested qid missing, have %v", tree.SortedQIDs())
	}
	if q.QID != "algebra/quadratic" {
		t.Errorf("qid = %q", q.QID)
	}
	if len(tree.Instances) != 1 {
		t.Fatalf("instances = %d, want 1", len(tree.Instances))
	}
	inst := tree.Instances["Sp26"]
	if inst.UserRoles["staff@example.com"] != "Instructor" {
		t.Errorf("user roles = %v", inst.UserRoles)
	}
	hw := inst.Assessments["HW1"]
	if hw == nil {
		t.Fatal("assessment HW1 missing")
	}
	qids := hw.QIDs()
	if len(qids) != 2 || qids[0] != "addVectors" || qids[1] != "algebra/quadratic" {
		t.Errorf("QIDs() = %v", qids)
	}
}

func TestDiskLoader_NoInstancesOrQuestions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "infoCourse.json"), `{"uuid": "5c2a5a1e-3f0e-4b7e-9a56-6c8f0f3f1a01", "name": "Empty"}`)

	tree, err := NewDiskLoader().LoadFullCourse(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadFullCourse: %v", err)
	}
	if len(tree.Questions) != 0 || len(tree.Instances) != 0 {
		t.Errorf("expected empty tree, got %d questions %d instances", len(tree.Questions), len(tree.Instances))
	}
}

func TestDiskLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		wantErr string
	}{
		{
			name:    "missing course info",
			setup:   func(t *testing.T, dir string) {},
			wantErr: "infoCourse.json",
		},
		{
			name: "malformed json",
			setup: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, "infoCourse.json"), `{"uuid": `)
			},
			wantErr: "parse",
		},
		{
			name: "question without uuid",
			setup: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, "infoCourse.json"), `{"uuid": "5c2a5a1e-3f0e-4b7e-9a56-6c8f0f3f1a01"}`)
				writeFile(t, filepath.Join(dir, "questions", "q1", "info.json"), `{"title": "no uuid"}`)
			},
			wantErr: "missing uuid",
		},
		{
			name: "invalid instance uuid",
			setup: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, "infoCourse.json"), `{"uuid": "5c2a5a1e-3f0e-4b7e-9a56-6c8f0f3f1a01"}`)
				writeFile(t, filepath.Join(dir, "courseInstances", "Fa25", "infoCourseInstance.json"), `{"uuid": "nope"}`)
			},
			wantErr: "invalid uuid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			_, err := NewDiskLoader().LoadFullCourse(context.Background(), dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDiskLoader_LoadSingleQuestion(t *testing.T) {
	dir := testCourse(t)
	l := NewDiskLoader()

	q, err := l.LoadSingleQuestion(context.Background(), dir, "algebra/quadratic")
	if err != nil {
		t.Fatalf("LoadSingleQuestion: %v", err)
	}
	if q.UUID != "a0a3b7f4-1d0e-4d89-8a5b-000000000002" {
		t.Errorf("uuid = %q", q.UUID)
	}

	if _, err := l.LoadSingleQuestion(context.Background(), dir, "missing"); err == nil {
		t.Error("expected error for missing question")
	}
	if _, err := l.LoadSingleQuestion(context.Background(), dir, "../etc"); err == nil {
		t.Error("expected error for path traversal")
	}
}

func TestDiskLoader_CanonicalUUIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "infoCourse.json"), `{"uuid": "5C2A5A1E-3F0E-4B7E-9A56-6C8F0F3F1A01", "name": "Upper"}`)
	writeFile(t, filepath.Join(dir, "questions", "q2", "info.json"),
		`{"uuid": "ABCDEF01-2345-6789-ABCD-EF0123456789", "title": "Q2"}`)
	writeFile(t, filepath.Join(dir, "courseInstances", "Fa26", "infoCourseInstance.json"),
		`{"uuid": "B1B3B7F4-1D0E-4D89-8A5B-000000000001"}`)
	writeFile(t, filepath.Join(dir, "courseInstances", "Fa26", "assessments", "HW1", "infoAssessment.json"),
		`{"uuid": "{c1b3b7f4-1d0e-4d89-8a5b-000000000001}", "title": "HW1"}`)

	l := NewDiskLoader()
	tree, err := l.LoadFullCourse(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadFullCourse: %v", err)
	}

	tests := []struct {
		what string
		got  string
		want string
	}{
		{"course", tree.CourseInfo.UUID, "5c2a5a1e-3f0e-4b7e-9a56-6c8f0f3f1a01"},
		{"question", tree.Questions["q2"].UUID, "abcdef01-2345-6789-abcd-ef0123456789"},
		{"instance", tree.Instances["Fa26"].UUID, "b1b3b7f4-1d0e-4d89-8a5b-000000000001"},
		{"assessment", tree.Instances["Fa26"].Assessments["HW1"].UUID, "c1b3b7f4-1d0e-4d89-8a5b-000000000001"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s uuid = %q, want %q", tt.what, tt.got, tt.want)
		}
	}

	q, err := l.LoadSingleQuestion(context.Background(), dir, "q2")
	if err != nil {
		t.Fatalf("LoadSingleQuestion: %v", err)
	}
	if q.UUID != "abcdef01-2345-6789-abcd-ef0123456789" {
		t.Errorf("single question uuid = %q", q.UUID)
	}
}

func TestDiskLoader_CancelledContext(t *testing.T) {
	dir := testCourse(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDiskLoader().LoadFullCourse(ctx, dir); err == nil {
		t.Error("expected context error")
	}
}
