package lock

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maraichr/coursesync/internal/config"
	"github.com/maraichr/coursesync/internal/syncer"
)

// exerciseLocker checks the behaviour every backend has to provide.
func exerciseLocker(t *testing.T, l syncer.Locker) {
	t.Helper()
	ctx := context.Background()
	name := syncer.LockName("/courses/exercise")

	first, err := l.TryLock(ctx, name)
	if err != nil {
		t.Fatalf("first TryLock: %v", err)
	}
	if first == nil {
		t.Fatal("first TryLock should obtain the lock")
	}
	if first.Name() != name {
		t.Errorf("Name() = %q, want %q", first.Name(), name)
	}

	second, err := l.TryLock(ctx, name)
	if err != nil {
		t.Fatalf("second TryLock: %v", err)
	}
	if second != nil {
		t.Fatal("second TryLock should report the lock as held")
	}

	other, err := l.TryLock(ctx, syncer.LockName("/courses/other"))
	if err != nil || other == nil {
		t.Fatalf("independent name should lock: lock=%v err=%v", other, err)
	}
	if err := other.Release(ctx); err != nil {
		t.Fatalf("release other: %v", err)
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}

	again, err := l.TryLock(ctx, name)
	if err != nil || again == nil {
		t.Fatalf("lock should be available after release: lock=%v err=%v", again, err)
	}
	if err := again.Release(ctx); err != nil {
		t.Fatalf("release again: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseLocker(t, NewMemory())
}

func TestMemory_DoubleRelease(t *testing.T) {
	m := NewMemory()
	l, _ := m.TryLock(context.Background(), "coursedir:/c")
	if err := l.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := l.Release(context.Background()); err == nil {
		t.Error("expected error on second release")
	}
}

func TestFile(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	exerciseLocker(t, f)
}

func TestFile_PathIsFlat(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	a := f.Path("coursedir:/a/b/c")
	b := f.Path("coursedir:/a/b/d")
	if a == b {
		t.Error("distinct names must map to distinct files")
	}
	if a != f.Path("coursedir:/a/b/c") {
		t.Error("path must be stable for a name")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SyncConfig
		wantErr bool
	}{
		{"memory", config.SyncConfig{LockBackend: config.LockBackendMemory}, false},
		{"file", config.SyncConfig{LockBackend: config.LockBackendFile, LockDir: t.TempDir()}, false},
		{"postgres without pool", config.SyncConfig{LockBackend: config.LockBackendPostgres}, true},
		{"valkey without client", config.SyncConfig{LockBackend: config.LockBackendValkey}, true},
		{"unknown", config.SyncConfig{LockBackend: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg, Backends{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Error("expected a locker")
			}
		})
	}
}

func TestKeepAlive(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name    string
		results []error // nil refreshes, errLockLost reports a lost key
		wantErr error
	}{
		{"refreshes until stopped", []error{nil, nil, nil}, nil},
		{"stops when the key is gone", []error{nil, errLockLost}, errLockLost},
		{"recovers from a transient error", []error{boom, nil, nil}, nil},
		{"reports an unrecovered error", []error{nil, boom, boom}, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var calls atomic.Int32
			refresh := func(context.Context) (bool, error) {
				n := int(calls.Add(1))
				if n > len(tt.results) {
					cancel()
					return true, nil
				}
				switch err := tt.results[n-1]; {
				case errors.Is(err, errLockLost):
					return false, nil
				case err != nil:
					if n == len(tt.results) {
						cancel()
					}
					return false, err
				}
				return true, nil
			}

			done := make(chan error, 1)
			go func() { done <- keepAlive(ctx, time.Millisecond, refresh) }()

			select {
			case err := <-done:
				if tt.wantErr == nil && err != nil {
					t.Fatalf("keepAlive = %v, want nil", err)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Fatalf("keepAlive = %v, want %v", err, tt.wantErr)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("keepAlive did not return")
			}
		})
	}
}
