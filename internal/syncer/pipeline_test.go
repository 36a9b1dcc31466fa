package syncer

import (
	"context"
	"reflect"
	"testing"

	"github.com/maraichr/coursesync/internal/course"
)

func TestDefaultStages_Order(t *testing.T) {
	h := newHarness()
	p := NewPipeline(DefaultStages(h.syncers, false, nil), nil, testLogger)

	want := []string{
		"course_info",
		"course_instances",
		"topics",
		"questions",
		"tags",
		"assessment_sets",
		"course_instance_content",
		"reload_elements",
	}
	if got := p.Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Stages() = %v, want %v", got, want)
	}
}

func TestPipeline_RecordsTimings(t *testing.T) {
	h := newHarness()
	perf := NewPerf(testLogger, true)
	p := NewPipeline(DefaultStages(h.syncers, false, perf), perf, testLogger)

	rc := &RunContext{
		CourseDir: "/courses/c1",
		Tree: &course.Tree{
			Instances: map[string]*course.Instance{"Fa19": {ShortName: "Fa19"}},
			Questions: map[string]*course.Question{},
		},
	}
	if err := p.Run(context.Background(), rc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := perf.Durations()
	for _, name := range []string{
		"syncCourseInfo",
		"syncQuestions",
		"syncAssessmentSets",
		"syncCourseInstanceContent",
		"syncCourseInstanceFa19",
		"syncCourseInstanceFa19Staff",
		"syncCourseInstanceFa19Assessments",
		"syncReloadElements",
	} {
		if _, ok := got[name]; !ok {
			t.Errorf("missing timing for %q", name)
		}
	}
}

func TestTimerName(t *testing.T) {
	tests := []struct {
		stage string
		want  string
	}{
		{"course_info", "syncCourseInfo"},
		{"topics", "syncTopics"},
		{"assessment_sets", "syncAssessmentSets"},
	}
	for _, tt := range tests {
		if got := timerName(tt.stage); got != tt.want {
			t.Errorf("timerName(%q) = %q, want %q", tt.stage, got, tt.want)
		}
	}
}

func TestNopTimer(t *testing.T) {
	stop := NopTimer{}.Start("anything")
	stop()
}
