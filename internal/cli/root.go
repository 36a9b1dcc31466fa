// Package cli implements the coursesync command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maraichr/coursesync/internal/app"
	"github.com/maraichr/coursesync/internal/config"
	"github.com/maraichr/coursesync/internal/logging"
)

// SyncService is what the commands drive.
type SyncService interface {
	SyncDiskToStore(ctx context.Context, courseDir string, courseID uuid.UUID) error
	SyncOrCreate(ctx context.Context, courseDir string) (uuid.UUID, error)
	SyncSingleQuestion(ctx context.Context, courseDir, qid string) error
}

// Runtime is an opened environment for one command invocation.
type Runtime struct {
	Sync    SyncService
	Migrate func(ctx context.Context) error
	Logger  *slog.Logger
	Close   func()
}

// Opener connects the backends a command needs.
type Opener func(ctx context.Context, opts *RootOptions) (*Runtime, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose           bool
	ParallelInstances bool
	Profile           bool
}

// NewRootCommand creates the root command. A nil open uses DefaultOpener.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = DefaultOpener
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "coursesync",
		Short: "Sync course directories into the course database",
		Long: `coursesync loads a course directory from disk and writes its course info,
instances, topics, questions, tags, assessment sets, staff and assessments
to the database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVar(&opts.ParallelInstances, "parallel-instances", false, "sync course instances concurrently")
	cmd.PersistentFlags().BoolVar(&opts.Profile, "profile", false, "log the duration of every sync section")

	cmd.AddCommand(NewSyncCommand(opts, open))
	cmd.AddCommand(NewQuestionCommand(opts, open))
	cmd.AddCommand(NewWatchCommand(opts, open))
	cmd.AddCommand(NewMigrateCommand(opts, open))

	return cmd
}

// DefaultOpener loads configuration from the environment, applies the global
// flags on top and connects Postgres and, when reachable, Valkey.
func DefaultOpener(ctx context.Context, opts *RootOptions) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Sync.ParallelInstances = cfg.Sync.ParallelInstances || opts.ParallelInstances
	cfg.Sync.Profile = cfg.Sync.Profile || opts.Profile

	logger := logging.New(cfg.Log)
	a, err := app.Open(ctx, cfg, logger, app.Options{})
	if err != nil {
		return nil, err
	}
	return &Runtime{
		Sync:    a.Service,
		Migrate: a.Store.Migrate,
		Logger:  logger,
		Close:   a.Close,
	}, nil
}
