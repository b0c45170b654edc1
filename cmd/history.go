package cmd

import (
	"os"

	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/spf13/cobra"
)

// historyCmd groups commands over the stored history.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Work with the stored lines-of-code history",
}

// historyExportCmd exports history and repositories to Parquet.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored history to Parquet files",
	Long: `Export every stored history record and registered repository to Parquet.

Two files are written next to --output-file:
  <output-file>.history.parquet
  <output-file>.repositories.parquet

Examples:
  codemonitor history export --output-file ./backup/codemonitor`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return iocache.ExportHistory(cmd.Context(), iocache.Manager, cfg.OutputFile, os.Stdout)
	},
}
