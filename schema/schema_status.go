package schema

import "time"

// StoreStatus represents the status of the history database.
type StoreStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalRecords     int64            `json:"total_records"`
	TotalRepos       int64            `json:"total_repos"`
	OldestCommitTime time.Time        `json:"oldest_commit_time"`
	LatestCommitTime time.Time        `json:"latest_commit_time"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}
