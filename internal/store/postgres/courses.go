package postgres

import (
	"context"

	"github.com/google/uuid"
)

const courseColumns = `id, path, uuid, name, title, timezone, created_at, updated_at`

func scanCourse(row interface{ Scan(...any) error }) (Course, error) {
	var i Course
	err := row.Scan(&i.ID, &i.Path, &i.UUID, &i.Name, &i.Title, &i.Timezone, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

// SelectOrInsertCourseByPath returns the id of the course at path, creating
// the row first if none exists.
func (q *Queries) SelectOrInsertCourseByPath(ctx context.Context, path string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx,
		`INSERT INTO courses (path) VALUES ($1)
		 ON CONFLICT (path) DO UPDATE SET path = EXCLUDED.path
		 RETURNING id`,
		path).Scan(&id)
	return id, err
}

func (q *Queries) GetCourse(ctx context.Context, id uuid.UUID) (Course, error) {
	return scanCourse(q.db.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
}

func (q *Queries) GetCourseByPath(ctx context.Context, path string) (Course, error) {
	return scanCourse(q.db.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE path = $1`, path))
}

func (q *Queries) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := q.db.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Course
	for rows.Next() {
		i, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type UpdateCourseInfoParams struct {
	ID       uuid.UUID
	UUID     string
	Name     string
	Title    string
	Timezone *string
}

func (q *Queries) UpdateCourseInfo(ctx context.Context, arg UpdateCourseInfoParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE courses
		 SET uuid = $2, name = $3, title = $4, timezone = $5, updated_at = now()
		 WHERE id = $1`,
		arg.ID, arg.UUID, arg.Name, arg.Title, arg.Timezone)
	return err
}
