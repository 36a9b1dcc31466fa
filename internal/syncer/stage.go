package syncer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/maraichr/coursesync/internal/course"
)

// Stage represents a step in the course sync pipeline.
type Stage interface {
	Name() string
	Label() string
	Execute(ctx context.Context, rc *RunContext) error
}

// RunContext carries the state of one full sync through the pipeline stages.
type RunContext struct {
	RunID     uuid.UUID
	CourseDir string
	CourseID  uuid.UUID
	Tree      *course.Tree
	Logger    *slog.Logger
}

// EntitySyncer writes one entity kind of the loaded tree to the store.
// Implementations must be idempotent.
type EntitySyncer interface {
	Sync(ctx context.Context, rc *RunContext) error
}

// InstanceSyncer writes one entity kind scoped to a single course instance.
type InstanceSyncer interface {
	SyncInstance(ctx context.Context, rc *RunContext, inst *course.Instance) error
}

// ReloadHook rebuilds derived caches once the store is up to date.
type ReloadHook interface {
	Reload(ctx context.Context, rc *RunContext) error
}

// EntityStage wraps an EntitySyncer with a name, a label and a timer scope.
type EntityStage struct {
	name   string
	label  string
	syncer EntitySyncer
}

func NewEntityStage(name, label string, s EntitySyncer) *EntityStage {
	return &EntityStage{name: name, label: label, syncer: s}
}

func (s *EntityStage) Name() string  { return s.name }
func (s *EntityStage) Label() string { return s.label }

func (s *EntityStage) Execute(ctx context.Context, rc *RunContext) error {
	return s.syncer.Sync(ctx, rc)
}

// InstanceStage runs staff then assessments for every loaded course
// instance. Instances run one after another unless parallel is set, in which
// case each instance gets its own goroutine; a failing instance does not stop
// the others that are already running, and the first failure is returned.
type InstanceStage struct {
	staff       InstanceSyncer
	assessments InstanceSyncer
	parallel    bool
	timer       Timer
}

func NewInstanceStage(staff, assessments InstanceSyncer, parallel bool, timer Timer) *InstanceStage {
	if timer == nil {
		timer = NopTimer{}
	}
	return &InstanceStage{staff: staff, assessments: assessments, parallel: parallel, timer: timer}
}

func (s *InstanceStage) Name() string { return "course_instance_content" }
func (s *InstanceStage) Label() string {
	return "Syncing course instance staff and assessments from git repository to database..."
}

func (s *InstanceStage) Execute(ctx context.Context, rc *RunContext) error {
	names := rc.Tree.InstanceNames()

	if !s.parallel {
		for _, name := range names {
			if err := s.syncInstance(ctx, rc, rc.Tree.Instances[name]); err != nil {
				return err
			}
		}
		return nil
	}

	// No derived context: siblings keep running after one fails.
	var g errgroup.Group
	for _, name := range names {
		inst := rc.Tree.Instances[name]
		g.Go(func() error {
			return s.syncInstance(ctx, rc, inst)
		})
	}
	return g.Wait()
}

func (s *InstanceStage) syncInstance(ctx context.Context, rc *RunContext, inst *course.Instance) error {
	defer s.timer.Start("syncCourseInstance" + inst.ShortName)()

	rc.Logger.Info("Syncing "+inst.ShortName+" courseInstance from git repository to database...",
		slog.String("course_instance", inst.ShortName))
	stop := s.timer.Start("syncCourseInstance" + inst.ShortName + "Staff")
	err := s.staff.SyncInstance(ctx, rc, inst)
	stop()
	if err != nil {
		return &StageError{Stage: instanceStageName(inst.ShortName, "staff"), Err: err}
	}

	rc.Logger.Info("Syncing "+inst.ShortName+" assessments from git repository to database...",
		slog.String("course_instance", inst.ShortName))
	stop = s.timer.Start("syncCourseInstance" + inst.ShortName + "Assessments")
	err = s.assessments.SyncInstance(ctx, rc, inst)
	stop()
	if err != nil {
		return &StageError{Stage: instanceStageName(inst.ShortName, "assessments"), Err: err}
	}
	return nil
}

// ReloadStage is the terminal step that refreshes derived caches.
type ReloadStage struct {
	hook ReloadHook
}

func NewReloadStage(hook ReloadHook) *ReloadStage {
	return &ReloadStage{hook: hook}
}

func (s *ReloadStage) Name() string  { return "reload_elements" }
func (s *ReloadStage) Label() string { return "Reloading course elements..." }

func (s *ReloadStage) Execute(ctx context.Context, rc *RunContext) error {
	return s.hook.Reload(ctx, rc)
}

func instanceStageName(shortName, kind string) string {
	return "instance:" + shortName + ":" + kind
}
