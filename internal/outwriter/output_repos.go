package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
	"github.com/olekukonko/tablewriter"
)

// WriteRepositories outputs registered repositories.
func WriteRepositories(w io.Writer, repos []schema.Repository, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, repos); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		header := []string{"id", "name", "path", "include_path", "status", "last_scanned_at", "created_at"}
		err := writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, r := range repos {
				row := []string{
					itoa(r.ID), r.Name, r.Path, r.IncludePath, string(r.Status),
					csvTime(r.LastScannedAt), csvTime(&r.CreatedAt),
				}
				if err := cw.Write(row); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeRepositoriesTable(w, repos, cfg)
	}
	return nil
}

func writeRepositoriesTable(w io.Writer, repos []schema.Repository, cfg *contract.Config) error {
	if len(repos) == 0 {
		_, err := fmt.Fprintln(w, "No repositories registered. Use 'codemonitor repo add <path>' to start.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Name", "Path", "Include", "Status", "Last Scan"})

	pathWidth := GetMaxTablePathWidth(cfg, 60)
	data := make([][]string, 0, len(repos))
	for _, r := range repos {
		status := string(r.Status)
		if cfg.UseColors {
			status = contract.GetRepoLabel(r.Status)
		}
		data = append(data, []string{
			itoa(r.ID),
			r.Name,
			contract.TruncatePath(r.Path, pathWidth),
			r.IncludePath,
			status,
			formatOptionalTime(r.LastScannedAt),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteTasks outputs backfill task snapshots.
func WriteTasks(w io.Writer, tasks []schema.BackfillTask, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, tasks); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		header := []string{"task_id", "repo_id", "status", "processed", "total", "error", "started_at", "completed_at"}
		err := writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, t := range tasks {
				row := []string{
					t.ID, itoa(t.RepoID), string(t.Status), itoa(t.ProcessedCount), itoa(t.TotalCount),
					t.Error, csvTime(t.StartedAt), csvTime(t.CompletedAt),
				}
				if err := cw.Write(row); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeTasksTable(w, tasks, cfg)
	}
	return nil
}

func writeTasksTable(w io.Writer, tasks []schema.BackfillTask, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Task", "Repo", "Status", "Commits", "Elapsed", "Error"})

	data := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		status := string(t.Status)
		if cfg.UseColors {
			status = contract.GetTaskLabel(t.Status)
		}
		data = append(data, []string{
			t.ID,
			itoa(t.RepoID),
			status,
			formatLOC(t.ProcessedCount),
			formatElapsed(t),
			t.Error,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// formatElapsed is the run time of a task so far, or in total once finished.
func formatElapsed(t schema.BackfillTask) string {
	if t.StartedAt == nil {
		return "-"
	}
	end := time.Now()
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	}
	return end.Sub(*t.StartedAt).Round(time.Millisecond).String()
}
