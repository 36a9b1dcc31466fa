package fromdisk

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/course"
	"github.com/maraichr/coursesync/internal/store"
	"github.com/maraichr/coursesync/internal/store/postgres"
	"github.com/maraichr/coursesync/internal/syncer"
)

// TopicsSyncer mirrors infoCourse.json topics. Ordinals follow file order.
type TopicsSyncer struct {
	store *store.Store
}

func NewTopicsSyncer(s *store.Store) *TopicsSyncer {
	return &TopicsSyncer{store: s}
}

func (t *TopicsSyncer) Sync(ctx context.Context, rc *syncer.RunContext) error {
	topics := rc.Tree.CourseInfo.Topics
	names := make([]string, len(topics))
	for i, tp := range topics {
		names[i] = tp.Name
	}
	if err := checkUniqueNames("topic", names); err != nil {
		return err
	}

	return t.store.WithTx(ctx, func(q *postgres.Queries) error {
		for i, tp := range topics {
			if err := q.UpsertTopic(ctx, postgres.UpsertTopicParams{
				CourseID:    rc.CourseID,
				Name:        tp.Name,
				Color:       tp.Color,
				Description: tp.Description,
				Number:      int32(i + 1),
			}); err != nil {
				return fmt.Errorf("upsert topic %q: %w", tp.Name, err)
			}
		}
		if err := q.DeleteTopicsNotIn(ctx, rc.CourseID, names); err != nil {
			return fmt.Errorf("delete unused topics: %w", err)
		}
		return nil
	})
}

// TagsSyncer mirrors infoCourse.json tags and then relinks every question
// to its tags. It runs after questions so every question row exists.
type TagsSyncer struct {
	store *store.Store
}

func NewTagsSyncer(s *store.Store) *TagsSyncer {
	return &TagsSyncer{store: s}
}

func (t *TagsSyncer) Sync(ctx context.Context, rc *syncer.RunContext) error {
	tags := rc.Tree.CourseInfo.Tags
	names := make([]string, len(tags))
	for i, tg := range tags {
		names[i] = tg.Name
	}
	if err := checkUniqueNames("tag", names); err != nil {
		return err
	}

	return t.store.WithTx(ctx, func(q *postgres.Queries) error {
		for i, tg := range tags {
			if err := q.UpsertTag(ctx, postgres.UpsertTagParams{
				CourseID:    rc.CourseID,
				Name:        tg.Name,
				Color:       tg.Color,
				Description: tg.Description,
				Number:      int32(i + 1),
			}); err != nil {
				return fmt.Errorf("upsert tag %q: %w", tg.Name, err)
			}
		}

		tagIDs, err := q.ListTagIDs(ctx, rc.CourseID)
		if err != nil {
			return fmt.Errorf("list tags: %w", err)
		}
		questionIDs, err := q.ListQuestionIDs(ctx, rc.CourseID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		links, err := questionTagLinks(rc.Tree, questionIDs, tagIDs)
		if err != nil {
			return err
		}

		if err := q.DeleteQuestionTagsForCourse(ctx, rc.CourseID); err != nil {
			return fmt.Errorf("clear question tags: %w", err)
		}
		if err := q.DeleteTagsNotIn(ctx, rc.CourseID, names); err != nil {
			return fmt.Errorf("delete unused tags: %w", err)
		}
		for _, l := range links {
			if err := q.InsertQuestionTag(ctx, l); err != nil {
				return fmt.Errorf("link question tag: %w", err)
			}
		}
		return nil
	})
}

// questionTagLinks resolves each question's tag names to ids. A tag that is
// not declared in infoCourse.json is an error naming the question.
func questionTagLinks(tree *course.Tree, questionIDs, tagIDs map[string]uuid.UUID) ([]postgres.InsertQuestionTagParams, error) {
	var links []postgres.InsertQuestionTagParams
	for _, qid := range tree.SortedQIDs() {
		questionID, ok := questionIDs[qid]
		if !ok {
			return nil, fmt.Errorf("question %s was not synced", qid)
		}
		seen := make(map[string]bool)
		for i, name := range tree.Questions[qid].Tags {
			if seen[name] {
				continue
			}
			seen[name] = true
			tagID, ok := tagIDs[name]
			if !ok {
				return nil, fmt.Errorf("question %s: unknown tag %q", qid, name)
			}
			links = append(links, postgres.InsertQuestionTagParams{
				QuestionID: questionID,
				TagID:      tagID,
				Number:     int32(i + 1),
			})
		}
	}
	return links, nil
}

type AssessmentSetsSyncer struct {
	store *store.Store
}

func NewAssessmentSetsSyncer(s *store.Store) *AssessmentSetsSyncer {
	return &AssessmentSetsSyncer{store: s}
}

func (a *AssessmentSetsSyncer) Sync(ctx context.Context, rc *syncer.RunContext) error {
	sets := rc.Tree.CourseInfo.AssessmentSets
	names := make([]string, len(sets))
	for i, s := range sets {
		names[i] = s.Name
	}
	if err := checkUniqueNames("assessment set", names); err != nil {
		return err
	}

	return a.store.WithTx(ctx, func(q *postgres.Queries) error {
		for i, s := range sets {
			if err := q.UpsertAssessmentSet(ctx, postgres.UpsertAssessmentSetParams{
				CourseID:     rc.CourseID,
				Abbreviation: s.Abbreviation,
				Name:         s.Name,
				Heading:      s.Heading,
				Color:        s.Color,
				Number:       int32(i + 1),
			}); err != nil {
				return fmt.Errorf("upsert assessment set %q: %w", s.Name, err)
			}
		}
		if err := q.DeleteAssessmentSetsNotIn(ctx, rc.CourseID, names); err != nil {
			return fmt.Errorf("delete unused assessment sets: %w", err)
		}
		return nil
	})
}
