package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/codemonitor/core/backfill"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/iocache"
	"github.com/huangsam/codemonitor/internal/mcp"
	"github.com/huangsam/codemonitor/internal/metrics"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the CodeMonitor MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents register repositories,
run backfills and query lines-of-code history through standard tools.

With --metrics-addr, backfill metrics are also served for Prometheus at /metrics.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		var observer contract.BackfillObserver = contract.NopObserver{}
		if cfg.MetricsAddr != "" {
			collector := metrics.NewCollector()
			srv, err := metrics.Serve(ctx, cfg.MetricsAddr, collector, logger)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Close(shutdownCtx)
			}()
			// stdout carries the protocol
			_, _ = fmt.Fprintf(os.Stderr, "Serving metrics on http://%s/metrics\n", srv.Addr())
			observer = collector
		}

		engine := newEngine(observer)
		log := commandLogger(cmd)
		serveErr := mcp.StartMCPServer(ctx, cfg, mcp.Deps{
			Store:  iocache.Manager,
			Engine: engine,
			Client: gitClient,
			Logger: log,
		})
		if err := drainBackfills(engine, mcpShutdownWait); err != nil {
			log.Warn("backfills still running at shutdown", "error", err)
		}
		return serveErr
	},
}

// mcpShutdownWait bounds how long the server waits for running backfills
// after the client disconnects.
const mcpShutdownWait = 30 * time.Second

// drainBackfills waits for submitted backfills so none is cut off while the
// store closes.
func drainBackfills(engine *backfill.Engine, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return engine.Wait(ctx)
}
