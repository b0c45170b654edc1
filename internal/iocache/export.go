package iocache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/parquet"
)

// ExportHistory writes stored history and tracked repositories to two Parquet
// files named after outputFile. Progress is reported on w.
func ExportHistory(ctx context.Context, mgr contract.StoreManager, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := mgr.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalRecords == 0 {
		return errors.New("no history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total history records: %d\n", status.TotalRecords)
	_, _ = fmt.Fprintf(w, "Total repositories: %d\n", status.TotalRepos)

	records, err := mgr.History().All(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve history: %w", err)
	}
	repos, err := mgr.Repositories().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve repositories: %w", err)
	}

	historyRows := parquet.ConvertHistoryRecords(records)
	historyFile := outputFile + ".history.parquet"
	if err := parquet.WriteHistoryParquet(historyRows, historyFile); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d history records to: %s\n", len(historyRows), historyFile)

	repoRows := parquet.ConvertRepositories(repos)
	repoFile := outputFile + ".repositories.parquet"
	if err := parquet.WriteRepositoriesParquet(repoRows, repoFile); err != nil {
		return fmt.Errorf("failed to write repositories: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d repositories to: %s\n", len(repoRows), repoFile)
	return nil
}
