package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/maraichr/coursesync/internal/watch"
)

func NewWatchCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <course-dir>",
		Short: "Sync a course directory whenever it changes",
		Long: `Run a full sync, then keep syncing as files change. Edits confined to
existing question directories sync just those questions; any other change
runs a full sync. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := absDir(args[0])
			if err != nil {
				return err
			}
			rt, err := open(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.Sync.SyncOrCreate(cmd.Context(), dir); err != nil {
				rt.Logger.Error("initial sync failed", slog.String("error", err.Error()))
			}
			return watch.New(dir, rt.Sync, debounce, rt.Logger).Run(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a batch of changes is synced")
	return cmd
}

// absDir resolves dir to a clean absolute path naming an existing directory.
func absDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("course directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("course directory %s is not a directory", abs)
	}
	return abs, nil
}
