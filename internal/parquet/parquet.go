// Package parquet exports stored code-size history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/codemonitor/schema"
	"github.com/parquet-go/parquet-go"
)

// HistoryRow is one stored snapshot.
// This struct maps to the codemonitor_history database table.
type HistoryRow struct {
	// ID is the insertion order of the record
	ID int64 `parquet:"id,snappy"`

	// RepoID references the tracked repository
	RepoID int64 `parquet:"repo_id,snappy"`

	// CommittedAt is the author time of the commit (TIMESTAMP with nanosecond precision)
	CommittedAt time.Time `parquet:"committed_at,snappy"`

	// CommitDay is the UTC calendar day of CommittedAt
	CommitDay string `parquet:"commit_day,snappy,dict"`

	// CommitHash identifies the commit
	CommitHash string `parquet:"commit_hash,snappy"`

	// TotalLOC is the reconstructed line total after the commit
	TotalLOC int64 `parquet:"total_loc,snappy"`
}

// RepositoryRow is one tracked repository.
// This struct maps to the codemonitor_repositories database table.
type RepositoryRow struct {
	ID            int64      `parquet:"id,snappy"`
	Name          string     `parquet:"name,snappy"`
	Path          string     `parquet:"path,snappy"`
	IncludePath   *string    `parquet:"include_path,optional,snappy"`
	Status        string     `parquet:"status,snappy,dict"`
	LastScannedAt *time.Time `parquet:"last_scanned_at,optional,snappy"`
	CreatedAt     time.Time  `parquet:"created_at,snappy"`
}

// ConvertHistoryRecords maps stored records to Parquet rows.
func ConvertHistoryRecords(records []schema.HistoryRecord) []HistoryRow {
	rows := make([]HistoryRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, HistoryRow{
			ID:          rec.ID,
			RepoID:      rec.RepoID,
			CommittedAt: rec.Timestamp.UTC(),
			CommitDay:   schema.DayKey(rec.Timestamp),
			CommitHash:  rec.CommitID,
			TotalLOC:    rec.TotalLOC,
		})
	}
	return rows
}

// ConvertRepositories maps tracked repositories to Parquet rows.
func ConvertRepositories(repos []schema.Repository) []RepositoryRow {
	rows := make([]RepositoryRow, 0, len(repos))
	for _, repo := range repos {
		row := RepositoryRow{
			ID:            repo.ID,
			Name:          repo.Name,
			Path:          repo.Path,
			Status:        string(repo.Status),
			LastScannedAt: repo.LastScannedAt,
			CreatedAt:     repo.CreatedAt.UTC(),
		}
		if repo.IncludePath != "" {
			include := repo.IncludePath
			row.IncludePath = &include
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteHistoryParquet writes history rows to a Parquet file.
func WriteHistoryParquet(data []HistoryRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteRepositoriesParquet writes repository rows to a Parquet file.
func WriteRepositoriesParquet(data []RepositoryRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// writeRows infers the schema from the struct tags of T.
func writeRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
