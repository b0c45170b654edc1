package cmd

import (
	"github.com/huangsam/codemonitor/core/baseline"
	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/huangsam/codemonitor/internal/outwriter"
	"github.com/spf13/cobra"
)

// baselineCmd compares an exact count of the working tree with the stored total.
var baselineCmd = &cobra.Command{
	Use:   "baseline <name>",
	Short: "Count the working tree with cloc and compare it to the stored total",
	Long: `Run cloc over the working tree of a registered repository and report the drift
between its code-line count and the total derived from Git line deltas.

Git counts every line including blanks and comments, so some drift is expected.
The stored history is never changed by this command.

Examples:
  codemonitor baseline shop-backend
  codemonitor baseline shop-backend --cloc-path /opt/cloc/bin/cloc --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := lookupRepository(ctx, args[0])
		if err != nil {
			return err
		}
		report, err := baseline.Report(ctx, baseline.NewClocCounter(cfg.ClocPath), iocache.Manager.History(), repo)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteBaseline(report, cfg)
	},
}
