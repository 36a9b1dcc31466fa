package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSync struct {
	calls    []string
	courseID uuid.UUID
	err      error
}

func (f *fakeSync) SyncDiskToStore(_ context.Context, dir string, id uuid.UUID) error {
	f.calls = append(f.calls, "full:"+dir+":"+id.String())
	return f.err
}

func (f *fakeSync) SyncOrCreate(_ context.Context, dir string) (uuid.UUID, error) {
	f.calls = append(f.calls, "create:"+dir)
	return f.courseID, f.err
}

func (f *fakeSync) SyncSingleQuestion(_ context.Context, dir, qid string) error {
	f.calls = append(f.calls, "question:"+dir+":"+qid)
	return f.err
}

type harness struct {
	sync     *fakeSync
	opened   int
	closed   int
	migrated int
	opts     *RootOptions
}

func (h *harness) open(_ context.Context, opts *RootOptions) (*Runtime, error) {
	h.opened++
	h.opts = opts
	return &Runtime{
		Sync:    h.sync,
		Migrate: func(context.Context) error { h.migrated++; return nil },
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Close:   func() { h.closed++ },
	}, nil
}

func run(t *testing.T, h *harness, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(h.open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, name := range []string{"sync", "question", "watch", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(nil)

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	for _, name := range []string{"parallel-instances", "profile"} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, "false", f.DefValue)
	}
}

func TestSyncCommand(t *testing.T) {
	dir := t.TempDir()
	courseID := uuid.New()

	t.Run("sync or create", func(t *testing.T) {
		h := &harness{sync: &fakeSync{courseID: courseID}}
		out, err := run(t, h, "sync", dir, "--parallel-instances")
		require.NoError(t, err)
		assert.Equal(t, []string{"create:" + dir}, h.sync.calls)
		assert.Contains(t, out, courseID.String())
		assert.True(t, h.opts.ParallelInstances)
		assert.Equal(t, 1, h.closed)
	})

	t.Run("existing course", func(t *testing.T) {
		h := &harness{sync: &fakeSync{}}
		_, err := run(t, h, "sync", dir, "--course-id", courseID.String())
		require.NoError(t, err)
		assert.Equal(t, []string{"full:" + dir + ":" + courseID.String()}, h.sync.calls)
	})

	t.Run("invalid course id", func(t *testing.T) {
		h := &harness{sync: &fakeSync{}}
		_, err := run(t, h, "sync", dir, "--course-id", "nope")
		require.Error(t, err)
		assert.Zero(t, h.opened, "backends should not be opened for bad flags")
	})

	t.Run("missing directory", func(t *testing.T) {
		h := &harness{sync: &fakeSync{}}
		_, err := run(t, h, "sync", filepath.Join(dir, "missing"))
		require.Error(t, err)
		assert.Zero(t, h.opened)
	})

	t.Run("sync error", func(t *testing.T) {
		boom := errors.New("stage questions failed")
		h := &harness{sync: &fakeSync{err: boom}}
		_, err := run(t, h, "sync", dir)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, h.closed)
	})

	t.Run("wrong arg count", func(t *testing.T) {
		h := &harness{sync: &fakeSync{}}
		_, err := run(t, h, "sync")
		require.Error(t, err)
	})
}

func TestQuestionCommand(t *testing.T) {
	dir := t.TempDir()
	h := &harness{sync: &fakeSync{}}

	out, err := run(t, h, "question", dir, "algebra/q1")
	require.NoError(t, err)
	assert.Equal(t, []string{"question:" + dir + ":algebra/q1"}, h.sync.calls)
	assert.Contains(t, out, "algebra/q1")
}

func TestMigrateCommand(t *testing.T) {
	h := &harness{sync: &fakeSync{}}
	out, err := run(t, h, "migrate")
	require.NoError(t, err)
	assert.Equal(t, 1, h.migrated)
	assert.Contains(t, out, "schema applied")
}

func TestWatchCommand_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	h := &harness{sync: &fakeSync{courseID: uuid.New()}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCommand(h.open)
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"watch", dir})
	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Equal(t, []string{"create:" + dir}, h.sync.calls)
}
