package postgres

import (
	"context"

	"github.com/google/uuid"
)

type UpsertCourseInstanceParams struct {
	CourseID  uuid.UUID
	UUID      string
	ShortName string
	LongName  *string
}

// UpsertCourseInstance writes an instance keyed by its uuid and revives it if
// it had been soft-deleted.
func (q *Queries) UpsertCourseInstance(ctx context.Context, arg UpsertCourseInstanceParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx,
		`INSERT INTO course_instances (course_id, uuid, short_name, long_name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (course_id, uuid) DO UPDATE
		 SET short_name = EXCLUDED.short_name,
		     long_name = EXCLUDED.long_name,
		     deleted_at = NULL
		 RETURNING id`,
		arg.CourseID, arg.UUID, arg.ShortName, arg.LongName).Scan(&id)
	return id, err
}

// SoftDeleteCourseInstancesNotIn marks every live instance of the course
// whose uuid is not in keep as deleted.
func (q *Queries) SoftDeleteCourseInstancesNotIn(ctx context.Context, courseID uuid.UUID, keep []string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE course_instances SET deleted_at = now()
		 WHERE course_id = $1 AND deleted_at IS NULL AND NOT (uuid = ANY($2::text[]))`,
		courseID, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) GetCourseInstanceIDByUUID(ctx context.Context, courseID uuid.UUID, instanceUUID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx,
		`SELECT id FROM course_instances
		 WHERE course_id = $1 AND uuid = $2 AND deleted_at IS NULL`,
		courseID, instanceUUID).Scan(&id)
	return id, err
}

func (q *Queries) ListCourseInstances(ctx context.Context, courseID uuid.UUID) ([]CourseInstance, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, course_id, uuid, short_name, long_name, deleted_at
		 FROM course_instances
		 WHERE course_id = $1 AND deleted_at IS NULL
		 ORDER BY short_name`,
		courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CourseInstance
	for rows.Next() {
		var i CourseInstance
		if err := rows.Scan(&i.ID, &i.CourseID, &i.UUID, &i.ShortName, &i.LongName, &i.DeletedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteCourseInstanceAccess(ctx context.Context, courseInstanceID uuid.UUID) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM course_instance_access WHERE course_instance_id = $1`,
		courseInstanceID)
	return err
}

type InsertCourseInstanceAccessParams struct {
	CourseInstanceID uuid.UUID
	UID              string
	Role             string
}

func (q *Queries) InsertCourseInstanceAccess(ctx context.Context, arg InsertCourseInstanceAccessParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO course_instance_access (course_instance_id, uid, role)
		 VALUES ($1, $2, $3)`,
		arg.CourseInstanceID, arg.UID, arg.Role)
	return err
}
