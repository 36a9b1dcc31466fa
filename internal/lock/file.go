package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/maraichr/coursesync/internal/syncer"
)

// File holds locks as flock(2) locks on files under dir. It serializes
// syncs between processes on one host.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// Path returns the lock file used for name. Lock names contain paths, so
// they are hashed into a flat file name.
func (f *File) Path(name string) string {
	sum := sha256.Sum256([]byte(name))
	return filepath.Join(f.dir, "coursesync-"+hex.EncodeToString(sum[:8])+".lock")
}

func (f *File) TryLock(_ context.Context, name string) (syncer.Lock, error) {
	fl := flock.New(f.Path(name))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("flock %s: %w", name, err)
	}
	if !locked {
		return nil, nil
	}
	return &fileLock{fl: fl, name: name}, nil
}

type fileLock struct {
	fl   *flock.Flock
	name string
}

func (l *fileLock) Name() string { return l.name }

func (l *fileLock) Release(_ context.Context) error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.name, err)
	}
	return nil
}
