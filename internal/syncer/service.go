package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/course"
)

// Loader reads course definitions from disk.
type Loader interface {
	LoadFullCourse(ctx context.Context, courseDir string) (*course.Tree, error)
	LoadSingleQuestion(ctx context.Context, courseDir, qid string) (*course.Question, error)
}

// CourseStore provisions the course record for a directory.
type CourseStore interface {
	SelectOrInsertCourseByPath(ctx context.Context, path string) (uuid.UUID, error)
}

// SingleQuestionSyncer writes one question without touching anything else.
type SingleQuestionSyncer interface {
	SyncSingleQuestion(ctx context.Context, courseDir string, q *course.Question) error
}

// Options tunes a Service.
type Options struct {
	// ParallelInstances syncs course instances concurrently.
	ParallelInstances bool
	// Profile logs every timed section as it ends.
	Profile bool
}

// Deps are the collaborators of a Service. Timer is optional; when nil each
// full sync gets its own Perf collector.
type Deps struct {
	Loader    Loader
	Courses   CourseStore
	Integrity IntegrityLookup
	Locker    Locker
	Syncers   Syncers
	Timer     Timer
	Logger    *slog.Logger
}

// Service is the entry point for full and incremental course syncs.
type Service struct {
	loader  Loader
	courses CourseStore
	oracle  *Oracle
	locker  Locker
	syncers Syncers
	timer   Timer
	opts    Options
	logger  *slog.Logger
}

func NewService(d Deps, opts Options) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		loader:  d.Loader,
		courses: d.Courses,
		oracle:  NewOracle(d.Integrity),
		locker:  d.Locker,
		syncers: d.Syncers,
		timer:   d.Timer,
		opts:    opts,
		logger:  logger,
	}
}

// SyncDiskToStore loads courseDir and writes it to the store under the
// course directory lock. It fails fast with ErrLockContention when another
// sync of the same directory is running.
func (s *Service) SyncDiskToStore(ctx context.Context, courseDir string, courseID uuid.UUID) error {
	runID := uuid.New()
	logger := s.logger.With(
		slog.String("course_dir", courseDir),
		slog.String("course_id", courseID.String()),
		slog.String("run_id", runID.String()))

	err := withLock(ctx, s.locker, LockName(courseDir), func() error {
		return s.syncLocked(ctx, runID, courseDir, courseID, logger)
	})
	if errors.Is(err, ErrLockContention) {
		return fmt.Errorf("%w: %s", ErrLockContention, courseDir)
	}
	return err
}

func (s *Service) syncLocked(ctx context.Context, runID uuid.UUID, courseDir string, courseID uuid.UUID, logger *slog.Logger) error {
	timer := s.timer
	if timer == nil {
		timer = NewPerf(logger, s.opts.Profile)
	}

	logger.Info("Loading info.json files from course repository")
	stop := timer.Start("loadCourseData")
	tree, err := s.loader.LoadFullCourse(ctx, courseDir)
	stop()
	if err != nil {
		return &LoadError{CourseDir: courseDir, Err: err}
	}

	rc := &RunContext{
		RunID:     runID,
		CourseDir: courseDir,
		CourseID:  courseID,
		Tree:      tree,
		Logger:    logger,
	}
	pipeline := NewPipeline(DefaultStages(s.syncers, s.opts.ParallelInstances, timer), timer, logger)

	stop = timer.Start("sync")
	err = pipeline.Run(ctx, rc)
	stop()
	if err != nil {
		return err
	}

	logger.Info("Completed sync of course directory",
		slog.Int("questions", len(tree.Questions)),
		slog.Int("course_instances", len(tree.Instances)))
	return nil
}

// SyncOrCreate provisions the course record for courseDir if needed and then
// runs a full sync. It returns the course id even when the sync fails.
func (s *Service) SyncOrCreate(ctx context.Context, courseDir string) (uuid.UUID, error) {
	courseID, err := s.courses.SelectOrInsertCourseByPath(ctx, courseDir)
	if err != nil {
		return uuid.Nil, fmt.Errorf("select or insert course %s: %w", courseDir, err)
	}
	return courseID, s.SyncDiskToStore(ctx, courseDir, courseID)
}

// SyncSingleQuestion syncs one question without taking the course lock.
// When the question's identity changed in a way only a full sync can
// reconcile, it logs and returns nil without writing anything; the next
// full sync picks the change up.
func (s *Service) SyncSingleQuestion(ctx context.Context, courseDir, qid string) error {
	logger := s.logger.With(
		slog.String("course_dir", courseDir),
		slog.String("qid", qid))

	q, err := s.loader.LoadSingleQuestion(ctx, courseDir, qid)
	if err != nil {
		return &LoadError{CourseDir: courseDir, Err: err}
	}

	safe, err := s.oracle.IsQuestionSafe(ctx, courseDir, Identity{ShortID: q.QID, UUID: q.UUID})
	if err != nil {
		return err
	}
	if !safe {
		logger.Info("question identity changed, skipping incremental sync")
		return nil
	}

	logger.Info("Syncing question from git repository to database...")
	if err := s.syncers.SingleQuestion.SyncSingleQuestion(ctx, courseDir, q); err != nil {
		return fmt.Errorf("sync question %s: %w", qid, err)
	}
	return nil
}
