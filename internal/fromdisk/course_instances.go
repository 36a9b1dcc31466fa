package fromdisk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maraichr/coursesync/internal/store"
	"github.com/maraichr/coursesync/internal/store/postgres"
	"github.com/maraichr/coursesync/internal/syncer"
)

type CourseInstancesSyncer struct {
	store  *store.Store
	logger *slog.Logger
}

func NewCourseInstancesSyncer(s *store.Store, logger *slog.Logger) *CourseInstancesSyncer {
	return &CourseInstancesSyncer{store: s, logger: logger}
}

func (c *CourseInstancesSyncer) Sync(ctx context.Context, rc *syncer.RunContext) error {
	uuids := make(map[string]string, len(rc.Tree.Instances))
	for name, inst := range rc.Tree.Instances {
		uuids[name] = inst.UUID
	}
	if err := checkDuplicateUUIDs("course instances", uuids); err != nil {
		return err
	}

	return c.store.WithTx(ctx, func(q *postgres.Queries) error {
		keep := make([]string, 0, len(rc.Tree.Instances))
		for _, name := range rc.Tree.InstanceNames() {
			inst := rc.Tree.Instances[name]
			if _, err := q.UpsertCourseInstance(ctx, postgres.UpsertCourseInstanceParams{
				CourseID:  rc.CourseID,
				UUID:      inst.UUID,
				ShortName: inst.ShortName,
				LongName:  optString(inst.LongName),
			}); err != nil {
				return fmt.Errorf("upsert course instance %s: %w", name, err)
			}
			keep = append(keep, inst.UUID)
		}

		n, err := q.SoftDeleteCourseInstancesNotIn(ctx, rc.CourseID, keep)
		if err != nil {
			return fmt.Errorf("delete removed course instances: %w", err)
		}
		if n > 0 {
			c.logger.Info("soft-deleted course instances", slog.Int64("count", n))
		}
		return nil
	})
}
