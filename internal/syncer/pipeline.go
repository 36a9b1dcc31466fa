package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Stage names in pipeline order.
const (
	StageCourseInfo      = "course_info"
	StageCourseInstances = "course_instances"
	StageTopics          = "topics"
	StageQuestions       = "questions"
	StageTags            = "tags"
	StageAssessmentSets  = "assessment_sets"
)

// Syncers bundles the per-entity-kind store writers.
type Syncers struct {
	CourseInfo      EntitySyncer
	CourseInstances EntitySyncer
	Topics          EntitySyncer
	Questions       EntitySyncer
	Tags            EntitySyncer
	AssessmentSets  EntitySyncer
	Staff           InstanceSyncer
	Assessments     InstanceSyncer
	SingleQuestion  SingleQuestionSyncer
	Reload          ReloadHook
}

// DefaultStages returns the full sync in dependency order: the course record
// first, topics before the questions that reference them, questions before
// tags and assessments, course instance content after everything it links
// to, and the element reload last.
func DefaultStages(s Syncers, parallelInstances bool, timer Timer) []Stage {
	return []Stage{
		NewEntityStage(StageCourseInfo, "Syncing courseInfo from git repository to database...", s.CourseInfo),
		NewEntityStage(StageCourseInstances, "Syncing courseInstances from git repository to database...", s.CourseInstances),
		NewEntityStage(StageTopics, "Syncing topics from git repository to database...", s.Topics),
		NewEntityStage(StageQuestions, "Syncing questions from git repository to database...", s.Questions),
		NewEntityStage(StageTags, "Syncing tags from git repository to database...", s.Tags),
		NewEntityStage(StageAssessmentSets, "Syncing assessment sets from git repository to database...", s.AssessmentSets),
		NewInstanceStage(s.Staff, s.Assessments, parallelInstances, timer),
		NewReloadStage(s.Reload),
	}
}

// Pipeline runs stages strictly in order and stops at the first failure.
// Nothing already written by earlier stages is rolled back; the next
// successful full sync converges the store.
type Pipeline struct {
	stages []Stage
	timer  Timer
	logger *slog.Logger
}

func NewPipeline(stages []Stage, timer Timer, logger *slog.Logger) *Pipeline {
	if timer == nil {
		timer = NopTimer{}
	}
	return &Pipeline{stages: stages, timer: timer, logger: logger}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes every stage against the loaded tree in rc.
func (p *Pipeline) Run(ctx context.Context, rc *RunContext) error {
	if rc.Logger == nil {
		rc.Logger = p.logger
	}

	for _, stage := range p.stages {
		rc.Logger.Info(stage.Label())
		rc.Logger.Info("stage started",
			slog.String("stage", stage.Name()),
			slog.String("course_dir", rc.CourseDir),
			slog.String("run_id", rc.RunID.String()))

		start := time.Now()
		stop := p.timer.Start(timerName(stage.Name()))
		err := stage.Execute(ctx, rc)
		stop()
		if err != nil {
			rc.Logger.Error("stage failed",
				slog.String("stage", stage.Name()),
				slog.String("run_id", rc.RunID.String()),
				slog.String("error", err.Error()))
			// Course instance failures already name their own stage.
			var se *StageError
			if errors.As(err, &se) {
				return se
			}
			return &StageError{Stage: stage.Name(), Err: err}
		}

		rc.Logger.Info("stage completed",
			slog.String("stage", stage.Name()),
			slog.String("run_id", rc.RunID.String()),
			slog.Duration("elapsed", time.Since(start)))
	}
	return nil
}

// timerName maps a stage name such as "assessment_sets" onto the timer
// section "syncAssessmentSets".
func timerName(stage string) string {
	out := []byte("sync")
	upper := true
	for i := 0; i < len(stage); i++ {
		c := stage[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}
