package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
)

// WriteResync outputs the result of an incremental resync.
func WriteResync(w io.Writer, result schema.ResyncResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, result)
	case schema.CSVOut:
		header := []string{"repo_id", "base_commit", "head_commit", "inserted", "deleted", "previous_loc", "total_loc", "up_to_date"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			return cw.Write([]string{
				itoa(result.RepoID), result.BaseCommit, result.HeadCommit,
				itoa(result.Delta.Inserted), itoa(result.Delta.Deleted),
				itoa(result.PreviousLOC), itoa(result.TotalLOC), strconv.FormatBool(result.UpToDate),
			})
		})
	}

	if result.UpToDate {
		_, err := fmt.Fprintf(w, "Already up to date at %s (%s LOC)\n", shortHash(result.HeadCommit), formatLOC(result.TotalLOC))
		return err
	}
	_, err := fmt.Fprintf(w, "Synced %s..%s: +%s -%s, %s → %s LOC\n",
		shortHash(result.BaseCommit), shortHash(result.HeadCommit),
		formatLOC(result.Delta.Inserted), formatLOC(result.Delta.Deleted),
		formatLOC(result.PreviousLOC), formatLOC(result.TotalLOC))
	return err
}

// WriteBaseline outputs a baseline comparison.
func WriteBaseline(w io.Writer, report schema.BaselineReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, report)
	case schema.CSVOut:
		header := []string{"repo_id", "name", "files", "code", "blank", "comment", "stored_loc", "has_history", "drift"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			return cw.Write([]string{
				itoa(report.RepoID), report.Name,
				itoa(report.Count.Files), itoa(report.Count.Code), itoa(report.Count.Blank), itoa(report.Count.Comment),
				itoa(report.StoredLOC), strconv.FormatBool(report.HasHistory), itoa(report.Drift),
			})
		})
	}

	lines := []string{
		fmt.Sprintf("Repository: %s", report.Name),
		fmt.Sprintf("Files:      %s", formatLOC(report.Count.Files)),
		fmt.Sprintf("Code:       %s", formatLOC(report.Count.Code)),
		fmt.Sprintf("Blank:      %s", formatLOC(report.Count.Blank)),
		fmt.Sprintf("Comment:    %s", formatLOC(report.Count.Comment)),
	}
	if report.HasHistory {
		lines = append(lines,
			fmt.Sprintf("Stored LOC: %s", formatLOC(report.StoredLOC)),
			fmt.Sprintf("Drift:      %s", driftLabel(report.Drift)),
		)
	} else {
		lines = append(lines, "Stored LOC: no history yet")
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func driftLabel(drift int64) string {
	if drift == 0 {
		return "none"
	}
	return formatChange(drift)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
