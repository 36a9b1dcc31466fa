package postgres

import (
	"context"

	"github.com/google/uuid"
)

type UpsertQuestionParams struct {
	CourseID uuid.UUID
	UUID     string
	QID      string
	Title    *string
	Type     *string
	TopicID  *uuid.UUID
}

// UpsertQuestion writes a question keyed by uuid, so a renamed qid keeps
// its row, and revives it if it had been soft-deleted.
func (q *Queries) UpsertQuestion(ctx context.Context, arg UpsertQuestionParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx,
		`INSERT INTO questions (course_id, uuid, qid, title, type, topic_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (course_id, uuid) DO UPDATE
		 SET qid = EXCLUDED.qid,
		     title = EXCLUDED.title,
		     type = EXCLUDED.type,
		     topic_id = EXCLUDED.topic_id,
		     deleted_at = NULL
		 RETURNING id`,
		arg.CourseID, arg.UUID, arg.QID, arg.Title, arg.Type, arg.TopicID).Scan(&id)
	return id, err
}

func (q *Queries) SoftDeleteQuestionsNotIn(ctx context.Context, courseID uuid.UUID, keep []string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE questions SET deleted_at = now()
		 WHERE course_id = $1 AND deleted_at IS NULL AND NOT (uuid = ANY($2::text[]))`,
		courseID, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListQuestionIDs maps qid to id for the live questions of the course.
func (q *Queries) ListQuestionIDs(ctx context.Context, courseID uuid.UUID) (map[string]uuid.UUID, error) {
	rows, err := q.db.Query(ctx,
		`SELECT qid, id FROM questions WHERE course_id = $1 AND deleted_at IS NULL`,
		courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]uuid.UUID)
	for rows.Next() {
		var qid string
		var id uuid.UUID
		if err := rows.Scan(&qid, &id); err != nil {
			return nil, err
		}
		out[qid] = id
	}
	return out, rows.Err()
}

func (q *Queries) ListQuestions(ctx context.Context, courseID uuid.UUID) ([]Question, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, course_id, uuid, qid, title, type, topic_id, deleted_at
		 FROM questions
		 WHERE course_id = $1 AND deleted_at IS NULL
		 ORDER BY qid`,
		courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Question
	for rows.Next() {
		var i Question
		if err := rows.Scan(&i.ID, &i.CourseID, &i.UUID, &i.QID, &i.Title, &i.Type, &i.TopicID, &i.DeletedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// QuestionIdentityRow holds two independent lookups: the uuid of the live
// question called qid, and the qid of the live question carrying uuid.
type QuestionIdentityRow struct {
	ExistingUUID *string
	ExistingQID  *string
}

func (q *Queries) GetQuestionIdentity(ctx context.Context, coursePath, qid, questionUUID string) (QuestionIdentityRow, error) {
	var row QuestionIdentityRow
	err := q.db.QueryRow(ctx,
		`SELECT
		   (SELECT q.uuid FROM questions q JOIN courses c ON c.id = q.course_id
		    WHERE c.path = $1 AND q.qid = $2 AND q.deleted_at IS NULL
		    LIMIT 1),
		   (SELECT q.qid FROM questions q JOIN courses c ON c.id = q.course_id
		    WHERE c.path = $1 AND q.uuid = $3 AND q.deleted_at IS NULL
		    LIMIT 1)`,
		coursePath, qid, questionUUID).Scan(&row.ExistingUUID, &row.ExistingQID)
	return row, err
}
