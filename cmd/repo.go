package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/codemonitor/core/backfill"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/huangsam/codemonitor/internal/outwriter"
	"github.com/huangsam/codemonitor/schema"
	"github.com/spf13/cobra"
)

// repoCmd groups repository registration commands.
var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Register, list and remove tracked repositories",
	Long: `Manage the repositories whose lines-of-code history is tracked.

Subcommands:
  add    - Register a repository and backfill its history
  list   - Show registered repositories and their scan status
  remove - Unregister a repository and delete its history`,
}

// repoAddCmd registers a repository and backfills it in the foreground.
var repoAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Register a repository and backfill its history",
	Long: `Register the Git repository containing <path> and replay its whole history.

When <path> is a subdirectory of the repository, only files below it are counted
unless --include says otherwise. Registering an existing name keeps the stored
history; the backfill then only adds commits that are not stored yet.

Examples:
  # Track the repository in the current directory
  codemonitor repo add .

  # Track only the backend folder under a custom name
  codemonitor repo add ~/src/shop --include backend/ --name shop-backend`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, args[0])
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		registry := iocache.Manager.Repositories()
		repoID, err := registry.Add(ctx, cfg.RepoName, cfg.RepoPath, cfg.IncludePath)
		if err != nil {
			return err
		}
		repo, err := registry.Get(ctx, repoID)
		if err != nil {
			return err
		}
		commandLogger(cmd).Info("repository registered", "repo", repo.Name, "path", repo.Path)
		return runBackfill(ctx, repo)
	},
}

// repoListCmd lists registered repositories.
var repoListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Show registered repositories",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repos, err := iocache.Manager.Repositories().List(cmd.Context())
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteRepositories(repos, cfg)
	},
}

// repoRemoveCmd unregisters a repository together with its history.
var repoRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Short:   "Unregister a repository and delete its history",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := lookupRepository(ctx, args[0])
		if err != nil {
			return err
		}
		if err := iocache.Manager.History().DeleteRepository(ctx, repo.ID); err != nil {
			return err
		}
		if err := iocache.Manager.Repositories().Remove(ctx, repo.ID); err != nil {
			return err
		}
		fmt.Printf("Removed %s and its history.\n", repo.Name)
		return nil
	},
}

// runBackfill submits a backfill for repo, waits for it and prints the task.
// A failed task is returned as an error so the process exits non-zero.
func runBackfill(ctx context.Context, repo schema.Repository) error {
	engine := newEngine(nil)
	taskID := engine.Submit(ctx, repo.ID, repo.Path, repo.IncludePath)
	task, err := waitForTask(ctx, engine, taskID, cfg.PollInterval, os.Stderr)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteTasks([]schema.BackfillTask{task}, cfg); err != nil {
		return err
	}
	if task.Status == schema.TaskFailed {
		return fmt.Errorf("backfill of %s failed: %s", repo.Name, task.Error)
	}
	return nil
}

// waitForTask polls the engine until the task is terminal, reporting progress on w.
func waitForTask(ctx context.Context, engine *backfill.Engine, taskID string, interval time.Duration, w io.Writer) (schema.BackfillTask, error) {
	if interval <= 0 {
		interval = contract.DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last int64 = -1
	for {
		task, err := engine.Status(taskID)
		if err != nil {
			return task, err
		}
		if task.Status.IsTerminal() {
			if last >= 0 {
				_, _ = fmt.Fprintln(w)
			}
			return task, nil
		}
		if task.Status == schema.TaskRunning && task.ProcessedCount != last {
			last = task.ProcessedCount
			_, _ = fmt.Fprintf(w, "\rBackfilling: %s commits", humanize.Comma(last))
		}

		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-ticker.C:
		}
	}
}
