package fromdisk

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/course"
	"github.com/maraichr/coursesync/internal/store"
	"github.com/maraichr/coursesync/internal/store/postgres"
	"github.com/maraichr/coursesync/internal/syncer"
)

// AssessmentsSyncer writes the assessments of one course instance and links
// their zone questions to synced question rows.
type AssessmentsSyncer struct {
	store  *store.Store
	logger *slog.Logger
}

func NewAssessmentsSyncer(s *store.Store, logger *slog.Logger) *AssessmentsSyncer {
	return &AssessmentsSyncer{store: s, logger: logger}
}

func (a *AssessmentsSyncer) SyncInstance(ctx context.Context, rc *syncer.RunContext, inst *course.Instance) error {
	uuids := make(map[string]string, len(inst.Assessments))
	for tid, as := range inst.Assessments {
		uuids[tid] = as.UUID
	}
	if err := checkDuplicateUUIDs("assessments", uuids); err != nil {
		return err
	}

	tids := make([]string, 0, len(inst.Assessments))
	for tid := range inst.Assessments {
		tids = append(tids, tid)
	}
	sort.Strings(tids)

	return a.store.WithTx(ctx, func(q *postgres.Queries) error {
		instanceID, err := q.GetCourseInstanceIDByUUID(ctx, rc.CourseID, inst.UUID)
		if err != nil {
			return fmt.Errorf("look up course instance: %w", err)
		}
		setIDs, err := q.ListAssessmentSetIDs(ctx, rc.CourseID)
		if err != nil {
			return fmt.Errorf("list assessment sets: %w", err)
		}
		questionIDs, err := q.ListQuestionIDs(ctx, rc.CourseID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}

		keep := make([]string, 0, len(tids))
		for _, tid := range tids {
			as := inst.Assessments[tid]
			params := postgres.UpsertAssessmentParams{
				CourseInstanceID: instanceID,
				UUID:             as.UUID,
				TID:              tid,
				Type:             optString(as.Type),
				Number:           optString(as.Number),
				Title:            optString(as.Title),
			}
			if as.Set != "" {
				setID, ok := setIDs[as.Set]
				if !ok {
					return fmt.Errorf("assessment %s: unknown assessment set %q", tid, as.Set)
				}
				params.AssessmentSetID = &setID
			}

			links, err := zoneQuestionLinks(as, questionIDs)
			if err != nil {
				return err
			}

			assessmentID, err := q.UpsertAssessment(ctx, params)
			if err != nil {
				return fmt.Errorf("upsert assessment %s: %w", tid, err)
			}
			if err := q.DeleteAssessmentQuestions(ctx, assessmentID); err != nil {
				return fmt.Errorf("clear assessment questions for %s: %w", tid, err)
			}
			for _, l := range links {
				l.AssessmentID = assessmentID
				if err := q.InsertAssessmentQuestion(ctx, l); err != nil {
					return fmt.Errorf("link question to assessment %s: %w", tid, err)
				}
			}
			keep = append(keep, as.UUID)
		}

		n, err := q.SoftDeleteAssessmentsNotIn(ctx, instanceID, keep)
		if err != nil {
			return fmt.Errorf("delete removed assessments: %w", err)
		}
		if n > 0 {
			rc.Logger.Info("soft-deleted assessments",
				slog.String("course_instance", inst.ShortName),
				slog.Int64("count", n))
		}
		return nil
	})
}

// zoneQuestionLinks numbers every referenced question, alternatives
// included, in zone order. An alternative without points inherits the
// points of its group.
func zoneQuestionLinks(as *course.Assessment, questionIDs map[string]uuid.UUID) ([]postgres.InsertAssessmentQuestionParams, error) {
	var links []postgres.InsertAssessmentQuestionParams
	add := func(zone *course.Zone, qid string, points float64) error {
		id, ok := questionIDs[qid]
		if !ok {
			return fmt.Errorf("assessment %s: question %s not found", as.TID, qid)
		}
		links = append(links, postgres.InsertAssessmentQuestionParams{
			QuestionID: id,
			Number:     int32(len(links) + 1),
			ZoneTitle:  optString(zone.Title),
			Points:     points,
		})
		return nil
	}

	for zi := range as.Zones {
		zone := &as.Zones[zi]
		for _, zq := range zone.Questions {
			if zq.ID != "" {
				if err := add(zone, zq.ID, zq.Points); err != nil {
					return nil, err
				}
			}
			for _, alt := range zq.Alternatives {
				points := alt.Points
				if points == 0 {
					points = zq.Points
				}
				if err := add(zone, alt.ID, points); err != nil {
					return nil, err
				}
			}
		}
	}
	return links, nil
}
