package postgres

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	UUID      *string   `json:"uuid"`
	Name      *string   `json:"name"`
	Title     *string   `json:"title"`
	Timezone  *string   `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CourseInstance struct {
	ID        uuid.UUID  `json:"id"`
	CourseID  uuid.UUID  `json:"course_id"`
	UUID      string     `json:"uuid"`
	ShortName string     `json:"short_name"`
	LongName  *string    `json:"long_name"`
	DeletedAt *time.Time `json:"deleted_at"`
}

type Question struct {
	ID        uuid.UUID  `json:"id"`
	CourseID  uuid.UUID  `json:"course_id"`
	UUID      string     `json:"uuid"`
	QID       string     `json:"qid"`
	Title     *string    `json:"title"`
	Type      *string    `json:"type"`
	TopicID   *uuid.UUID `json:"topic_id"`
	DeletedAt *time.Time `json:"deleted_at"`
}

type SyncJob struct {
	ID           uuid.UUID  `json:"id"`
	CourseID     *uuid.UUID `json:"course_id"`
	CourseDir    string     `json:"course_dir"`
	Kind         string     `json:"kind"`
	QID          *string    `json:"qid"`
	Source       string     `json:"source"`
	Trigger      string     `json:"trigger"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
}
