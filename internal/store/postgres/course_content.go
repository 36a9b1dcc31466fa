package postgres

// course_content.go covers the course-wide lookup tables declared in
// infoCourse.json: topics, tags and assessment sets.

import (
	"context"

	"github.com/google/uuid"
)

type UpsertTopicParams struct {
	CourseID    uuid.UUID
	Name        string
	Color       string
	Description string
	Number      int32
}

func (q *Queries) UpsertTopic(ctx context.Context, arg UpsertTopicParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO topics (course_id, name, color, description, number)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (course_id, name) DO UPDATE
		 SET color = EXCLUDED.color, description = EXCLUDED.description, number = EXCLUDED.number`,
		arg.CourseID, arg.Name, arg.Color, arg.Description, arg.Number)
	return err
}

func (q *Queries) DeleteTopicsNotIn(ctx context.Context, courseID uuid.UUID, keep []string) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM topics WHERE course_id = $1 AND NOT (name = ANY($2::text[]))`,
		courseID, keep)
	return err
}

// ListTopicIDs maps topic name to id for the course.
func (q *Queries) ListTopicIDs(ctx context.Context, courseID uuid.UUID) (map[string]uuid.UUID, error) {
	return q.listNameIDs(ctx, `SELECT name, id FROM topics WHERE course_id = $1`, courseID)
}

type UpsertTagParams struct {
	CourseID    uuid.UUID
	Name        string
	Color       string
	Description string
	Number      int32
}

func (q *Queries) UpsertTag(ctx context.Context, arg UpsertTagParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO tags (course_id, name, color, description, number)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (course_id, name) DO UPDATE
		 SET color = EXCLUDED.color, description = EXCLUDED.description, number = EXCLUDED.number`,
		arg.CourseID, arg.Name, arg.Color, arg.Description, arg.Number)
	return err
}

func (q *Queries) DeleteTagsNotIn(ctx context.Context, courseID uuid.UUID, keep []string) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM tags WHERE course_id = $1 AND NOT (name = ANY($2::text[]))`,
		courseID, keep)
	return err
}

func (q *Queries) ListTagIDs(ctx context.Context, courseID uuid.UUID) (map[string]uuid.UUID, error) {
	return q.listNameIDs(ctx, `SELECT name, id FROM tags WHERE course_id = $1`, courseID)
}

func (q *Queries) DeleteQuestionTags(ctx context.Context, questionID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM question_tags WHERE question_id = $1`, questionID)
	return err
}

// DeleteQuestionTagsForCourse removes every question/tag link of the course.
func (q *Queries) DeleteQuestionTagsForCourse(ctx context.Context, courseID uuid.UUID) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM question_tags qt
		 USING questions q
		 WHERE qt.question_id = q.id AND q.course_id = $1`,
		courseID)
	return err
}

type InsertQuestionTagParams struct {
	QuestionID uuid.UUID
	TagID      uuid.UUID
	Number     int32
}

func (q *Queries) InsertQuestionTag(ctx context.Context, arg InsertQuestionTagParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO question_tags (question_id, tag_id, number)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (question_id, tag_id) DO UPDATE SET number = EXCLUDED.number`,
		arg.QuestionID, arg.TagID, arg.Number)
	return err
}

type UpsertAssessmentSetParams struct {
	CourseID     uuid.UUID
	Abbreviation string
	Name         string
	Heading      string
	Color        string
	Number       int32
}

func (q *Queries) UpsertAssessmentSet(ctx context.Context, arg UpsertAssessmentSetParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO assessment_sets (course_id, abbreviation, name, heading, color, number)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (course_id, name) DO UPDATE
		 SET abbreviation = EXCLUDED.abbreviation, heading = EXCLUDED.heading,
		     color = EXCLUDED.color, number = EXCLUDED.number`,
		arg.CourseID, arg.Abbreviation, arg.Name, arg.Heading, arg.Color, arg.Number)
	return err
}

func (q *Queries) DeleteAssessmentSetsNotIn(ctx context.Context, courseID uuid.UUID, keep []string) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM assessment_sets WHERE course_id = $1 AND NOT (name = ANY($2::text[]))`,
		courseID, keep)
	return err
}

// ListAssessmentSetIDs maps assessment set name to id for the course.
func (q *Queries) ListAssessmentSetIDs(ctx context.Context, courseID uuid.UUID) (map[string]uuid.UUID, error) {
	return q.listNameIDs(ctx, `SELECT name, id FROM assessment_sets WHERE course_id = $1`, courseID)
}

func (q *Queries) listNameIDs(ctx context.Context, sql string, courseID uuid.UUID) (map[string]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, sql, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]uuid.UUID)
	for rows.Next() {
		var name string
		var id uuid.UUID
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, rows.Err()
}
