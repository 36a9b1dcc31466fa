// Package fromdisk writes a loaded course tree into the store, one entity
// kind at a time. Every syncer is idempotent and runs inside a single
// transaction, so a failed stage leaves its own kind untouched.
package fromdisk

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/maraichr/coursesync/internal/store"
	"github.com/maraichr/coursesync/internal/syncer"
)

// NewSyncers wires every per-kind syncer against s. reload runs last.
func NewSyncers(s *store.Store, reload syncer.ReloadHook, logger *slog.Logger) syncer.Syncers {
	questions := NewQuestionsSyncer(s, logger)
	return syncer.Syncers{
		CourseInfo:      NewCourseInfoSyncer(s),
		CourseInstances: NewCourseInstancesSyncer(s, logger),
		Topics:          NewTopicsSyncer(s),
		Questions:       questions,
		Tags:            NewTagsSyncer(s),
		AssessmentSets:  NewAssessmentSetsSyncer(s),
		Staff:           NewStaffSyncer(s),
		Assessments:     NewAssessmentsSyncer(s, logger),
		SingleQuestion:  questions,
		Reload:          reload,
	}
}

// DuplicateUUIDError reports several entities of one kind sharing a uuid.
type DuplicateUUIDError struct {
	Kind string
	UUID string
	IDs  []string
}

func (e *DuplicateUUIDError) Error() string {
	return fmt.Sprintf("UUID %s is used in multiple %s: %s", e.UUID, e.Kind, strings.Join(e.IDs, ", "))
}

// checkDuplicateUUIDs takes short id -> uuid and fails on the first uuid,
// in sorted order, claimed by more than one id.
func checkDuplicateUUIDs(kind string, uuidByID map[string]string) error {
	owners := make(map[string][]string)
	for id, u := range uuidByID {
		owners[u] = append(owners[u], id)
	}

	uuids := make([]string, 0, len(owners))
	for u, ids := range owners {
		if len(ids) > 1 {
			uuids = append(uuids, u)
		}
	}
	if len(uuids) == 0 {
		return nil
	}
	sort.Strings(uuids)

	ids := owners[uuids[0]]
	sort.Strings(ids)
	return &DuplicateUUIDError{Kind: kind, UUID: uuids[0], IDs: ids}
}

// checkUniqueNames fails on the first repeated name.
func checkUniqueNames(kind string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return fmt.Errorf("duplicate %s %q", kind, n)
		}
		seen[n] = true
	}
	return nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
