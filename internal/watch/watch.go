// Package watch syncs a course directory as files change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/maraichr/coursesync/internal/connectors"
)

const DefaultDebounce = 500 * time.Millisecond

type Syncer interface {
	SyncOrCreate(ctx context.Context, courseDir string) (uuid.UUID, error)
	SyncSingleQuestion(ctx context.Context, courseDir, qid string) error
}

// Watcher batches file events under a course directory. Once the directory
// has been quiet for the debounce interval, a batch confined to existing
// question directories syncs those questions; anything else runs a full sync.
type Watcher struct {
	dir      string
	syncer   Syncer
	debounce time.Duration
	logger   *slog.Logger
}

func New(dir string, s Syncer, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: filepath.Clean(dir), syncer: s, debounce: debounce, logger: logger}
}

// Run watches until ctx is cancelled. Sync failures are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}
	w.logger.Info("watching course directory", slog.String("course_dir", w.dir))

	// path -> deleted
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ignored(w.dir, event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				pending[event.Name] = true
			case event.Has(fsnotify.Create):
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						w.logger.Warn("watch new directory failed", slog.String("error", err.Error()))
					}
				}
				pending[event.Name] = false
			case event.Has(fsnotify.Write):
				pending[event.Name] = false
			default:
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			w.flush(ctx, pending)
			pending = make(map[string]bool)
		}
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) flush(ctx context.Context, pending map[string]bool) {
	if len(pending) == 0 {
		return
	}
	delta := batchDelta(w.dir, pending)

	if qids, ok := connectors.ChangedQuestions(w.dir, delta); ok {
		for _, qid := range qids {
			if err := w.syncer.SyncSingleQuestion(ctx, w.dir, qid); err != nil {
				w.logger.Error("question sync failed",
					slog.String("qid", qid),
					slog.String("error", err.Error()))
			}
		}
		return
	}

	if _, err := w.syncer.SyncOrCreate(ctx, w.dir); err != nil {
		w.logger.Error("course sync failed",
			slog.String("course_dir", w.dir),
			slog.String("error", err.Error()))
	}
}

// batchDelta expresses a batch of events as a course-relative delta.
func batchDelta(dir string, pending map[string]bool) *connectors.DeltaResult {
	delta := &connectors.DeltaResult{IsIncremental: true}
	for p, deleted := range pending {
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if deleted {
			delta.DeletedFiles = append(delta.DeletedFiles, rel)
		} else {
			delta.ChangedFiles = append(delta.ChangedFiles, rel)
		}
	}
	sort.Strings(delta.ChangedFiles)
	sort.Strings(delta.DeletedFiles)
	return delta
}

// ignored filters hidden files and directories plus editor backup files.
func ignored(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	base := filepath.Base(p)
	return strings.HasSuffix(base, "~") || base == "4913"
}
