package postgres

import (
	"context"

	"github.com/google/uuid"
)

type UpsertAssessmentParams struct {
	CourseInstanceID uuid.UUID
	UUID             string
	TID              string
	Type             *string
	Number           *string
	Title            *string
	AssessmentSetID  *uuid.UUID
}

func (q *Queries) UpsertAssessment(ctx context.Context, arg UpsertAssessmentParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx,
		`INSERT INTO assessments (course_instance_id, uuid, tid, type, number, title, assessment_set_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (course_instance_id, uuid) DO UPDATE
		 SET tid = EXCLUDED.tid,
		     type = EXCLUDED.type,
		     number = EXCLUDED.number,
		     title = EXCLUDED.title,
		     assessment_set_id = EXCLUDED.assessment_set_id,
		     deleted_at = NULL
		 RETURNING id`,
		arg.CourseInstanceID, arg.UUID, arg.TID, arg.Type, arg.Number, arg.Title, arg.AssessmentSetID).Scan(&id)
	return id, err
}

func (q *Queries) SoftDeleteAssessmentsNotIn(ctx context.Context, courseInstanceID uuid.UUID, keep []string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE assessments SET deleted_at = now()
		 WHERE course_instance_id = $1 AND deleted_at IS NULL AND NOT (uuid = ANY($2::text[]))`,
		courseInstanceID, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) DeleteAssessmentQuestions(ctx context.Context, assessmentID uuid.UUID) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM assessment_questions WHERE assessment_id = $1`, assessmentID)
	return err
}

type InsertAssessmentQuestionParams struct {
	AssessmentID uuid.UUID
	QuestionID   uuid.UUID
	Number       int32
	ZoneTitle    *string
	Points       float64
}

func (q *Queries) InsertAssessmentQuestion(ctx context.Context, arg InsertAssessmentQuestionParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO assessment_questions (assessment_id, question_id, number, zone_title, points)
		 VALUES ($1, $2, $3, $4, $5)`,
		arg.AssessmentID, arg.QuestionID, arg.Number, arg.ZoneTitle, arg.Points)
	return err
}
