package postgres

import (
	"context"

	"github.com/google/uuid"
)

const syncJobColumns = `id, course_id, course_dir, kind, qid, source, trigger, status,
	error_message, created_at, started_at, finished_at`

func scanSyncJob(row interface{ Scan(...any) error }) (SyncJob, error) {
	var i SyncJob
	err := row.Scan(
		&i.ID, &i.CourseID, &i.CourseDir, &i.Kind, &i.QID, &i.Source, &i.Trigger, &i.Status,
		&i.ErrorMessage, &i.CreatedAt, &i.StartedAt, &i.FinishedAt,
	)
	return i, err
}

type CreateSyncJobParams struct {
	CourseID  *uuid.UUID
	CourseDir string
	Kind      string
	QID       *string
	Source    string
	Trigger   string
}

func (q *Queries) CreateSyncJob(ctx context.Context, arg CreateSyncJobParams) (SyncJob, error) {
	return scanSyncJob(q.db.QueryRow(ctx,
		`INSERT INTO sync_jobs (course_id, course_dir, kind, qid, source, trigger, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		 RETURNING `+syncJobColumns,
		arg.CourseID, arg.CourseDir, arg.Kind, arg.QID, arg.Source, arg.Trigger))
}

type UpdateSyncJobStatusParams struct {
	ID           uuid.UUID
	Status       string
	CourseID     *uuid.UUID
	ErrorMessage *string
}

// UpdateSyncJobStatus moves a job to status. Entering "running" stamps
// started_at; entering a terminal status stamps finished_at.
func (q *Queries) UpdateSyncJobStatus(ctx context.Context, arg UpdateSyncJobStatusParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE sync_jobs
		 SET status = $2,
		     course_id = COALESCE($3, course_id),
		     error_message = $4,
		     started_at = CASE WHEN $2 = 'running' THEN now() ELSE started_at END,
		     finished_at = CASE WHEN $2 IN ('completed', 'failed', 'skipped') THEN now() ELSE finished_at END
		 WHERE id = $1`,
		arg.ID, arg.Status, arg.CourseID, arg.ErrorMessage)
	return err
}

func (q *Queries) GetSyncJob(ctx context.Context, id uuid.UUID) (SyncJob, error) {
	return scanSyncJob(q.db.QueryRow(ctx,
		`SELECT `+syncJobColumns+` FROM sync_jobs WHERE id = $1`, id))
}

func (q *Queries) ListSyncJobsByCourse(ctx context.Context, courseID uuid.UUID, limit int32) ([]SyncJob, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+syncJobColumns+` FROM sync_jobs
		 WHERE course_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		courseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SyncJob
	for rows.Next() {
		i, err := scanSyncJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
