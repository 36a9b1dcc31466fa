package fromdisk

import (
	"context"
	"fmt"

	"github.com/maraichr/coursesync/internal/store"
	"github.com/maraichr/coursesync/internal/store/postgres"
	"github.com/maraichr/coursesync/internal/syncer"
)

type CourseInfoSyncer struct {
	store *store.Store
}

func NewCourseInfoSyncer(s *store.Store) *CourseInfoSyncer {
	return &CourseInfoSyncer{store: s}
}

func (c *CourseInfoSyncer) Sync(ctx context.Context, rc *syncer.RunContext) error {
	info := rc.Tree.CourseInfo
	if err := c.store.UpdateCourseInfo(ctx, postgres.UpdateCourseInfoParams{
		ID:       rc.CourseID,
		UUID:     info.UUID,
		Name:     info.Name,
		Title:    info.Title,
		Timezone: optString(info.Timezone),
	}); err != nil {
		return fmt.Errorf("update course info: %w", err)
	}
	return nil
}
