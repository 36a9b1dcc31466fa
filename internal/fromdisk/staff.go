package fromdisk

import (
	"context"
	"fmt"
	"sort"

	"github.com/maraichr/coursesync/internal/course"
	"github.com/maraichr/coursesync/internal/store"
	"github.com/maraichr/coursesync/internal/store/postgres"
	"github.com/maraichr/coursesync/internal/syncer"
)

// StaffSyncer replaces a course instance's access rows with its userRoles.
type StaffSyncer struct {
	store *store.Store
}

func NewStaffSyncer(s *store.Store) *StaffSyncer {
	return &StaffSyncer{store: s}
}

func (s *StaffSyncer) SyncInstance(ctx context.Context, rc *syncer.RunContext, inst *course.Instance) error {
	uids := make([]string, 0, len(inst.UserRoles))
	for uid, role := range inst.UserRoles {
		if role == "" {
			return fmt.Errorf("user %s has an empty role", uid)
		}
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	return s.store.WithTx(ctx, func(q *postgres.Queries) error {
		instanceID, err := q.GetCourseInstanceIDByUUID(ctx, rc.CourseID, inst.UUID)
		if err != nil {
			return fmt.Errorf("look up course instance: %w", err)
		}
		if err := q.DeleteCourseInstanceAccess(ctx, instanceID); err != nil {
			return fmt.Errorf("clear access: %w", err)
		}
		for _, uid := range uids {
			if err := q.InsertCourseInstanceAccess(ctx, postgres.InsertCourseInstanceAccessParams{
				CourseInstanceID: instanceID,
				UID:              uid,
				Role:             inst.UserRoles[uid],
			}); err != nil {
				return fmt.Errorf("insert access for %s: %w", uid, err)
			}
		}
		return nil
	})
}
