package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func NewSyncCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	var courseID string

	cmd := &cobra.Command{
		Use:   "sync <course-dir>",
		Short: "Run a full sync of a course directory",
		Long: `Run a full sync of a course directory under the course directory lock.

Without --course-id the course record is looked up by path and created on
first use.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := absDir(args[0])
			if err != nil {
				return err
			}
			var id uuid.UUID
			if courseID != "" {
				if id, err = uuid.Parse(courseID); err != nil {
					return fmt.Errorf("invalid --course-id %q: %w", courseID, err)
				}
			}

			rt, err := open(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if id == uuid.Nil {
				if id, err = rt.Sync.SyncOrCreate(cmd.Context(), dir); err != nil {
					return err
				}
			} else if err := rt.Sync.SyncDiskToStore(cmd.Context(), dir, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %s (course %s)\n", dir, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&courseID, "course-id", "", "sync into an existing course record")
	return cmd
}

func NewQuestionCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "question <course-dir> <qid>",
		Short: "Sync a single question",
		Long: `Sync one question without taking the course lock.

When the question's uuid or qid changed in a way only a full sync can
reconcile, nothing is written and the command still succeeds.`,
		Args: cobra.ExactArgs(2),
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

			if err := rt.Sync.SyncSingleQuestion(cmd.Context(), dir, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced question %s\n", args[1])
			return nil
		},
	}
}

func NewMigrateCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
