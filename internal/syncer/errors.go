package syncer

import (
	"errors"
	"fmt"
)

// ErrLockContention is returned when another sync already holds the course
// directory lock. It is never retried.
var ErrLockContention = errors.New("another user is already syncing or modifying the course")

// LoadError reports malformed or unreadable disk content. It is returned
// before any store mutation happens.
type LoadError struct {
	CourseDir string
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load course %s: %v", e.CourseDir, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// StageError reports the pipeline stage that failed. Stages before it have
// already written to the store and are not rolled back.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// LockReleaseError is only surfaced when the guarded work itself succeeded.
type LockReleaseError struct {
	Name string
	Err  error
}

func (e *LockReleaseError) Error() string {
	return fmt.Sprintf("release lock %s: %v", e.Name, e.Err)
}

func (e *LockReleaseError) Unwrap() error { return e.Err }
