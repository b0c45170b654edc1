// Package outwriter has output and writer logic.
package outwriter

import (
	"errors"
	"io"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
)

// ErrParquetOutput is returned when parquet output is requested for something
// other than a history export.
var ErrParquetOutput = errors.New("parquet output is only supported by history export")

// OutWriter provides a unified interface for all output operations.
// Output goes to cfg.OutputFile, or stdout when it is empty.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteStats prints day-bucketed series using the configured output format.
func (ow *OutWriter) WriteStats(series []schema.StatsSeries, cfg *contract.Config) error {
	return ow.print(cfg, "Wrote stats", func(w io.Writer) error { return WriteStats(w, series, cfg) })
}

// WriteRepositories prints the registered repositories.
func (ow *OutWriter) WriteRepositories(repos []schema.Repository, cfg *contract.Config) error {
	return ow.print(cfg, "Wrote repositories", func(w io.Writer) error { return WriteRepositories(w, repos, cfg) })
}

// WriteTasks prints backfill task snapshots.
func (ow *OutWriter) WriteTasks(tasks []schema.BackfillTask, cfg *contract.Config) error {
	return ow.print(cfg, "Wrote tasks", func(w io.Writer) error { return WriteTasks(w, tasks, cfg) })
}

// WriteResync prints the outcome of an incremental resync.
func (ow *OutWriter) WriteResync(result schema.ResyncResult, cfg *contract.Config) error {
	return ow.print(cfg, "Wrote resync result", func(w io.Writer) error { return WriteResync(w, result, cfg) })
}

// WriteBaseline prints a baseline comparison.
func (ow *OutWriter) WriteBaseline(report schema.BaselineReport, cfg *contract.Config) error {
	return ow.print(cfg, "Wrote baseline", func(w io.Writer) error { return WriteBaseline(w, report, cfg) })
}

func (ow *OutWriter) print(cfg *contract.Config, successMsg string, fn func(io.Writer) error) error {
	if cfg.Output == schema.ParquetOut {
		return ErrParquetOutput
	}
	return writeWithFile(cfg.OutputFile, fn, successMsg)
}
