package iocache

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/codemonitor/schema"
)

// PrintStoreStatus prints store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Repositories: %s\n", humanize.Comma(status.TotalRepos))
	_, _ = fmt.Fprintf(w, "History Records: %s\n", humanize.Comma(status.TotalRecords))
	if status.TotalRecords > 0 {
		_, _ = fmt.Fprintf(w, "Oldest Commit: %s\n", status.OldestCommitTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Latest Commit: %s (%s)\n",
			status.LatestCommitTime.Format("2006-01-02 15:04:05"), humanize.Time(status.LatestCommitTime))
	}

	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %s rows\n", table, humanize.Comma(status.TableSizes[table]))
	}
}
