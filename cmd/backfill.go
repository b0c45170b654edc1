package cmd

import (
	"github.com/huangsam/codemonitor/core/backfill"
	"github.com/huangsam/codemonitor/internal/outwriter"
	"github.com/spf13/cobra"
)

// backfillCmd re-runs a full backfill for a registered repository.
var backfillCmd = &cobra.Command{
	Use:   "backfill <name>",
	Short: "Replay the full history of a registered repository",
	Long: `Replay every commit of a registered repository and store its lines-of-code curve.

Commits that are already stored are skipped, so running this twice is safe.
Use 'sync' instead to append just the latest changes.

Examples:
  codemonitor backfill shop-backend
  codemonitor backfill shop-backend --batch-size 2000`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := lookupRepository(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return runBackfill(cmd.Context(), repo)
	},
}

// syncCmd appends the current tip with a single diff.
var syncCmd = &cobra.Command{
	Use:   "sync <name>",
	Short: "Append the latest changes of a backfilled repository",
	Long: `Diff the last stored commit against HEAD and append one record for the result.

This is much cheaper than a backfill but requires one to have run first.
Rewritten history (rebase, force push) cannot be synced; run a backfill instead.

Examples:
  codemonitor sync shop-backend`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := lookupRepository(ctx, args[0])
		if err != nil {
			return err
		}
		result, err := backfill.Resync(ctx, resyncDeps(), repo)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteResync(result, cfg)
	},
}
