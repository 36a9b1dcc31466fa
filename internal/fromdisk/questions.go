package fromdisk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/course"
	"github.com/maraichr/coursesync/internal/store"
	"github.com/maraichr/coursesync/internal/store/postgres"
	"github.com/maraichr/coursesync/internal/syncer"
)

// QuestionsSyncer writes questions keyed by uuid. A qid rename keeps the
// row; a qid whose uuid changed becomes a new row and the old one is
// soft-deleted.
type QuestionsSyncer struct {
	store  *store.Store
	logger *slog.Logger
}

func NewQuestionsSyncer(s *store.Store, logger *slog.Logger) *QuestionsSyncer {
	return &QuestionsSyncer{store: s, logger: logger}
}

func (s *QuestionsSyncer) Sync(ctx context.Context, rc *syncer.RunContext) error {
	uuids := make(map[string]string, len(rc.Tree.Questions))
	for qid, q := range rc.Tree.Questions {
		uuids[qid] = q.UUID
	}
	if err := checkDuplicateUUIDs("questions", uuids); err != nil {
		return err
	}

	return s.store.WithTx(ctx, func(q *postgres.Queries) error {
		topicIDs, err := q.ListTopicIDs(ctx, rc.CourseID)
		if err != nil {
			return fmt.Errorf("list topics: %w", err)
		}

		keep := make([]string, 0, len(rc.Tree.Questions))
		for _, qid := range rc.Tree.SortedQIDs() {
			question := rc.Tree.Questions[qid]
			params, err := upsertQuestionParams(rc.CourseID, question, topicIDs)
			if err != nil {
				return err
			}
			if _, err := q.UpsertQuestion(ctx, params); err != nil {
				return fmt.Errorf("upsert question %s: %w", qid, err)
			}
			keep = append(keep, question.UUID)
		}

		n, err := q.SoftDeleteQuestionsNotIn(ctx, rc.CourseID, keep)
		if err != nil {
			return fmt.Errorf("delete removed questions: %w", err)
		}
		if n > 0 {
			rc.Logger.Info("soft-deleted questions", slog.Int64("count", n))
		}
		return nil
	})
}

// SyncSingleQuestion upserts one question and relinks its tags. Tags not yet
// in the store are skipped; the next full sync links them.
func (s *QuestionsSyncer) SyncSingleQuestion(ctx context.Context, courseDir string, question *course.Question) error {
	c, err := s.store.GetCourseByPath(ctx, courseDir)
	if err != nil {
		return fmt.Errorf("get course %s: %w", courseDir, err)
	}

	return s.store.WithTx(ctx, func(q *postgres.Queries) error {
		topicIDs, err := q.ListTopicIDs(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("list topics: %w", err)
		}
		params, err := upsertQuestionParams(c.ID, question, topicIDs)
		if err != nil {
			return err
		}
		questionID, err := q.UpsertQuestion(ctx, params)
		if err != nil {
			return fmt.Errorf("upsert question %s: %w", question.QID, err)
		}

		tagIDs, err := q.ListTagIDs(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("list tags: %w", err)
		}
		if err := q.DeleteQuestionTags(ctx, questionID); err != nil {
			return fmt.Errorf("clear question tags: %w", err)
		}
		for i, name := range question.Tags {
			tagID, ok := tagIDs[name]
			if !ok {
				s.logger.Warn("skipping unknown tag",
					slog.String("qid", question.QID),
					slog.String("tag", name))
				continue
			}
			if err := q.InsertQuestionTag(ctx, postgres.InsertQuestionTagParams{
				QuestionID: questionID,
				TagID:      tagID,
				Number:     int32(i + 1),
			}); err != nil {
				return fmt.Errorf("link tag %q: %w", name, err)
			}
		}
		return nil
	})
}

func upsertQuestionParams(courseID uuid.UUID, q *course.Question, topicIDs map[string]uuid.UUID) (postgres.UpsertQuestionParams, error) {
	params := postgres.UpsertQuestionParams{
		CourseID: courseID,
		UUID:     q.UUID,
		QID:      q.QID,
		Title:    optString(q.Title),
		Type:     optString(q.Type),
	}
	if q.Topic != "" {
		id, ok := topicIDs[q.Topic]
		if !ok {
			return params, fmt.Errorf("question %s: unknown topic %q", q.QID, q.Topic)
		}
		params.TopicID = &id
	}
	return params, nil
}
