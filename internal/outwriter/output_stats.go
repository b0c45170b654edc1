package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteStats outputs stats series, dispatching based on the output format configured.
func WriteStats(w io.Writer, series []schema.StatsSeries, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, series); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVStats(w, series); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeStatsTable(w, series, cfg)
	}
	return nil
}

// writeCSVStats writes one row per repository per day.
func writeCSVStats(w io.Writer, series []schema.StatsSeries) error {
	header := []string{"repo_id", "repository", "day", "timestamp", "total_loc"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range series {
			for _, p := range s.Points {
				row := []string{
					itoa(s.RepoID),
					s.Name,
					schema.DayKey(p.Timestamp),
					p.Timestamp.UTC().Format(time.RFC3339),
					itoa(p.TotalLOC),
				}
				if err := cw.Write(row); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
		}
		return nil
	})
}

// writeStatsTable prints the series with the change since the previous day
// that has a record.
func writeStatsTable(w io.Writer, series []schema.StatsSeries, cfg *contract.Config) error {
	if len(series) == 0 {
		_, err := fmt.Fprintln(w, "No history in the selected window.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Repository", "Day", "LOC", "Change"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTablePathWidth(cfg, 40)
	var data [][]string
	points := 0
	for _, s := range series {
		var prev int64
		for i, p := range s.Points {
			change := ""
			if i > 0 {
				change = formatChange(p.TotalLOC - prev)
			}
			data = append(data, []string{
				contract.TruncatePath(s.Name, nameWidth),
				schema.DayKey(p.Timestamp),
				formatLOC(p.TotalLOC),
				change,
			})
			prev = p.TotalLOC
			points++
		}
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d repositories, %d days with commits\n", len(series), points)
	return err
}
