package cmd

import (
	"time"

	"github.com/huangsam/codemonitor/core/stats"
	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/huangsam/codemonitor/internal/outwriter"
	"github.com/spf13/cobra"
)

// statsCmd prints the day-bucketed lines-of-code series.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lines of code per day for tracked repositories",
	Long: `Show the last stored lines-of-code value for each day with commits.

Days are calendar days in UTC. Days without commits are left out rather than
filled in, so gaps in the output mean no activity.

Examples:
  # Every repository over the last 30 days
  codemonitor stats

  # Two repositories over a quarter, as CSV
  codemonitor stats --repos api,web --days 90 --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		start, end := stats.Window(time.Now(), cfg.Days)
		commandLogger(cmd).Debug("loading stats", "start", start, "end", end, "repos", cfg.Repos)
		series, err := stats.Series(cmd.Context(), iocache.Manager.Repositories(), iocache.Manager.History(), cfg.Repos, start, end)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteStats(series, cfg)
	},
}
