package syncer

import "context"

// Locker hands out named, non-blocking, process-external locks.
type Locker interface {
	// TryLock returns a nil Lock and a nil error when name is already held.
	TryLock(ctx context.Context, name string) (Lock, error)
}

// Lock is a held named lock. Release must be called exactly once.
type Lock interface {
	Name() string
	Release(ctx context.Context) error
}

// LockName is the lock key guarding every full sync of courseDir.
func LockName(courseDir string) string {
	return "coursedir:" + courseDir
}

// withLock runs fn while holding name. A release failure is only returned
// when fn succeeded.
func withLock(ctx context.Context, locker Locker, name string, fn func() error) (err error) {
	lock, err := locker.TryLock(ctx, name)
	if err != nil {
		return err
	}
	if lock == nil {
		return ErrLockContention
	}

	defer func() {
		relErr := lock.Release(context.WithoutCancel(ctx))
		if relErr != nil && err == nil {
			err = &LockReleaseError{Name: lock.Name(), Err: relErr}
		}
	}()

	return fn()
}
