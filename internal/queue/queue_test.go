package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

func TestSyncMessage_Validate(t *testing.T) {
	job := uuid.New()
	course := uuid.New()

	tests := []struct {
		name    string
		msg     SyncMessage
		wantErr bool
	}{
		{"create", SyncMessage{JobID: job, Kind: KindCreate, CourseDir: "/c"}, false},
		{"full", SyncMessage{JobID: job, Kind: KindFull, CourseDir: "/c", CourseID: course}, false},
		{"question", SyncMessage{JobID: job, Kind: KindQuestion, CourseDir: "/c", QID: "q1"}, false},
		{"full without course id", SyncMessage{JobID: job, Kind: KindFull, CourseDir: "/c"}, true},
		{"question without qid", SyncMessage{JobID: job, Kind: KindQuestion, CourseDir: "/c"}, true},
		{"missing job id", SyncMessage{Kind: KindCreate, CourseDir: "/c"}, true},
		{"missing dir", SyncMessage{JobID: job, Kind: KindCreate}, true},
		{"unknown kind", SyncMessage{JobID: job, Kind: "partial", CourseDir: "/c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeEntry(t *testing.T) {
	msg := SyncMessage{JobID: uuid.New(), Kind: KindQuestion, CourseDir: "/c", QID: "algebra/q1", Source: SourceGit, Trigger: "webhook"}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	got, err := decodeEntry(valkey.XRangeEntry{ID: "1-0", FieldValues: map[string]string{"data": string(data)}})
	if err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if got != msg {
		t.Errorf("decoded %+v, want %+v", got, msg)
	}

	if _, err := decodeEntry(valkey.XRangeEntry{ID: "2-0", FieldValues: map[string]string{}}); err == nil {
		t.Error("expected error for missing data field")
	}
	if _, err := decodeEntry(valkey.XRangeEntry{ID: "3-0", FieldValues: map[string]string{"data": "{"}}); err == nil {
		t.Error("expected error for malformed json")
	}
	if _, err := decodeEntry(valkey.XRangeEntry{ID: "4-0", FieldValues: map[string]string{"data": `{"kind":"full"}`}}); err == nil {
		t.Error("expected validation error")
	}
}
